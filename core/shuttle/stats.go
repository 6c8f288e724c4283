package shuttle

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Stats is a read-only snapshot of one protocol session. It is advisory and
// never gates behavior.
type Stats struct {
	StartedAt time.Time
	Duration  time.Duration

	Sent          int
	LastDirective *Directive
	LastSentAt    time.Time

	Received       int
	LastState      *State
	LastReceivedAt time.Time

	AckLatencyMean time.Duration
	AckLatencyP95  time.Duration
}

// Stats returns the current session snapshot.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Stats{
		StartedAt:      s.startedAt,
		Duration:       time.Since(s.startedAt),
		Sent:           s.sent,
		LastSentAt:     s.lastSentAt,
		Received:       s.received,
		LastReceivedAt: s.lastRecvAt,
	}
	if s.lastDirective != nil {
		d := *s.lastDirective
		out.LastDirective = &d
	}
	if s.lastState != nil {
		st := *s.lastState
		out.LastState = &st
	}
	if len(s.ackLatencies) > 0 {
		lat := append([]float64(nil), s.ackLatencies...)
		sort.Float64s(lat)
		out.AckLatencyMean = time.Duration(stat.Mean(lat, nil))
		out.AckLatencyP95 = time.Duration(stat.Quantile(0.95, stat.Empirical, lat, nil))
	}
	return out
}
