package shuttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/wcs/core/logger"
)

// ErrAckTimeout is returned when no acknowledgment is received before the
// timeout.
var ErrAckTimeout = errors.New("shuttle: timeout waiting for ack")

// ConnState tracks the connection lifecycle to one vehicle. Transitions are
// driven only by explicit Connect and Disconnect calls.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (c ConnState) String() string {
	switch c {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Link transports directives to one vehicle. State reports travel the other
// way through the link owner calling Session.HandleState.
type Link interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, d Directive) error
	Disconnect()
}

type pendingDirective struct {
	d      Directive
	sentAt time.Time
	done   chan bool
}

// Session drives the directive/state exchange with one shuttle. At most one
// directive is outstanding at a time; state reports may arrive at any
// moment, solicited or not.
type Session struct {
	link       Link
	log        logger.Logger
	ackTimeout time.Duration

	mu        sync.Mutex
	conn      ConnState
	lastState *State
	pending   *pendingDirective
	// resolved holds a directive whose acknowledgment arrived before
	// WaitForAck was called; it is consumed by the next WaitForAck.
	resolved  *pendingDirective
	completed map[int]bool

	startedAt     time.Time
	sent          int
	lastDirective *Directive
	lastSentAt    time.Time
	received      int
	lastRecvAt    time.Time
	ackLatencies  []float64
}

// NewSession creates a session over the given link. A non-positive
// ackTimeout falls back to five seconds.
func NewSession(link Link, log logger.Logger, ackTimeout time.Duration) (*Session, error) {
	if link == nil {
		return nil, fmt.Errorf("shuttle: nil link")
	}
	if ackTimeout <= 0 {
		ackTimeout = 5 * time.Second
	}
	return &Session{
		link:       link,
		log:        log,
		ackTimeout: ackTimeout,
		completed:  make(map[int]bool),
		startedAt:  time.Now(),
	}, nil
}

// Connect establishes the link. Only a disconnected session may connect; no
// implicit reconnection happens on failure.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.conn != Disconnected {
		s.mu.Unlock()
		return fmt.Errorf("shuttle: connect while %s", s.conn)
	}
	s.conn = Connecting
	s.mu.Unlock()

	if err := s.link.Connect(ctx); err != nil {
		s.mu.Lock()
		s.conn = Disconnected
		s.mu.Unlock()
		return fmt.Errorf("shuttle: connect: %w", err)
	}
	s.mu.Lock()
	s.conn = Connected
	s.mu.Unlock()
	s.log.Infof("shuttle link connected")
	return nil
}

// Disconnect tears the link down and fails any outstanding directive.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.conn == Disconnected {
		s.mu.Unlock()
		return
	}
	s.conn = Disconnected
	s.resolvePendingLocked(false)
	s.mu.Unlock()
	s.link.Disconnect()
	s.log.Infof("shuttle link disconnected")
}

// ConnState returns the current connection state.
func (s *Session) ConnState() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// LastState returns a copy of the most recent state report, nil if none was
// ever received.
func (s *Session) LastState() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastState == nil {
		return nil
	}
	st := *s.lastState
	return &st
}

// Gate computes the blocking reasons that would currently refuse sending the
// directive. A zero result means the directive may be sent.
func (s *Session) Gate(d Directive) BlockReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gateLocked(d)
}

func (s *Session) gateLocked(d Directive) BlockReason {
	var r BlockReason
	if s.conn != Connected {
		r |= BlockNotConnected
	}
	if s.pending != nil {
		r |= BlockAwaitingAck
	}
	if s.lastState == nil {
		r |= BlockStatusUnknown
	} else {
		st := s.lastState
		if st.Manual {
			r |= BlockManualMode
		}
		if st.EStopped {
			r |= BlockEStopped
		}
		if st.ErrorCode != 0 {
			r |= BlockDeviceError
		}
		// Task-related bits only apply to handing out a task: clearing or
		// inquiring must stay possible while one runs.
		if d.Kind == DirectiveSendTask && st.Task != nil {
			r |= BlockActiveTask
		}
	}
	if d.Kind == DirectiveSendTask && d.Task != nil && s.completed[d.Task.TaskNo] {
		r |= BlockTaskCompleted
	}
	return r
}

// Send publishes the directive unless a blocking precondition is set. The
// directive stays outstanding until a state report acknowledges it, the ack
// timeout expires in WaitForAck, or the session disconnects.
func (s *Session) Send(ctx context.Context, d Directive) error {
	s.mu.Lock()
	if r := s.gateLocked(d); !r.MaySend() {
		s.mu.Unlock()
		return &SendBlockedError{Directive: d, Reason: r}
	}
	p := &pendingDirective{d: d, sentAt: time.Now(), done: make(chan bool, 1)}
	s.pending = p
	s.resolved = nil
	s.mu.Unlock()

	if err := s.link.Publish(ctx, d); err != nil {
		s.mu.Lock()
		if s.pending == p {
			s.pending = nil
		}
		s.mu.Unlock()
		return fmt.Errorf("shuttle: publish %s: %w", d, err)
	}

	s.mu.Lock()
	s.sent++
	s.lastDirective = &p.d
	s.lastSentAt = p.sentAt
	s.mu.Unlock()
	s.log.Debugf("sent directive %s", d)
	return nil
}

// WaitForAck blocks until the outstanding directive is acknowledged, the ack
// timeout expires, or the context is done. Timeouts clear the outstanding
// directive so the next send is not gated forever.
func (s *Session) WaitForAck(ctx context.Context) (bool, error) {
	s.mu.Lock()
	p := s.pending
	if p == nil {
		// The acknowledgment may already have arrived; its result waits in
		// the buffered done channel.
		p = s.resolved
		s.resolved = nil
	}
	s.mu.Unlock()
	if p == nil {
		return false, fmt.Errorf("shuttle: no directive outstanding")
	}

	timer := time.NewTimer(s.ackTimeout)
	defer timer.Stop()
	select {
	case ok := <-p.done:
		s.mu.Lock()
		if s.resolved == p {
			s.resolved = nil
		}
		s.mu.Unlock()
		return ok, nil
	case <-timer.C:
		s.mu.Lock()
		if s.pending == p {
			s.pending = nil
		}
		if s.resolved == p {
			s.resolved = nil
		}
		s.mu.Unlock()
		return false, ErrAckTimeout
	case <-ctx.Done():
		s.mu.Lock()
		if s.pending == p {
			s.pending = nil
		}
		if s.resolved == p {
			s.resolved = nil
		}
		s.mu.Unlock()
		return false, ctx.Err()
	}
}

// HandleState consumes one state report. It resolves the outstanding
// directive when the report acknowledges it and tracks task completion so a
// finished task is never dispatched twice.
func (s *Session) HandleState(st State) {
	now := time.Now()
	s.mu.Lock()
	s.received++
	s.lastRecvAt = now

	// A task the vehicle stopped reporting is finished.
	if s.lastState != nil && s.lastState.Task != nil {
		prev := s.lastState.Task.TaskNo
		if st.Task == nil || st.Task.TaskNo != prev {
			s.completed[prev] = true
		}
	}
	s.lastState = &st

	if s.pending != nil && IsAck(s.pending.d, &st) {
		s.ackLatencies = append(s.ackLatencies, float64(now.Sub(s.pending.sentAt)))
		s.resolvePendingLocked(true)
	}
	s.mu.Unlock()
}

// MarkTaskCompleted records an externally confirmed completion, typically
// fed back by the orchestrator after archiving the task.
func (s *Session) MarkTaskCompleted(taskNo int) {
	s.mu.Lock()
	s.completed[taskNo] = true
	s.mu.Unlock()
}

func (s *Session) resolvePendingLocked(ok bool) {
	if s.pending == nil {
		return
	}
	select {
	case s.pending.done <- ok:
	default:
	}
	s.resolved = s.pending
	s.pending = nil
}
