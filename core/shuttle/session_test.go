package shuttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/wcs/infra/logger"
)

type fakeLink struct {
	mu          sync.Mutex
	connected   bool
	published   []Directive
	connectErr  error
	publishErr  error
	disconnects int
}

func (l *fakeLink) Connect(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.connectErr != nil {
		return l.connectErr
	}
	l.connected = true
	return nil
}

func (l *fakeLink) Publish(_ context.Context, d Directive) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.publishErr != nil {
		return l.publishErr
	}
	l.published = append(l.published, d)
	return nil
}

func (l *fakeLink) Disconnect() {
	l.mu.Lock()
	l.connected = false
	l.disconnects++
	l.mu.Unlock()
}

func newTestSession(t *testing.T, link Link) *Session {
	t.Helper()
	s, err := NewSession(link, logger.NopLogger{}, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return s
}

func TestSessionConnectionLifecycle(t *testing.T) {
	link := &fakeLink{}
	s := newTestSession(t, link)
	if s.ConnState() != Disconnected {
		t.Fatalf("new session must be disconnected")
	}
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if s.ConnState() != Connected {
		t.Fatalf("expected connected got %s", s.ConnState())
	}
	if err := s.Connect(context.Background()); err == nil {
		t.Fatalf("double connect must fail")
	}
	s.Disconnect()
	if s.ConnState() != Disconnected || link.disconnects != 1 {
		t.Fatalf("disconnect did not reach link")
	}
}

func TestSessionConnectFailureStaysDisconnected(t *testing.T) {
	link := &fakeLink{connectErr: fmt.Errorf("broker down")}
	s := newTestSession(t, link)
	if err := s.Connect(context.Background()); err == nil {
		t.Fatalf("expected connect error")
	}
	if s.ConnState() != Disconnected {
		t.Fatalf("failed connect must leave session disconnected")
	}
}

func TestSendGatedWhenNotConnected(t *testing.T) {
	s := newTestSession(t, &fakeLink{})
	err := s.Send(context.Background(), Inquire())
	var blocked *SendBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected SendBlockedError got %v", err)
	}
	if !blocked.Reason.Has(BlockNotConnected) || !blocked.Reason.Has(BlockStatusUnknown) {
		t.Fatalf("unexpected mask %b", blocked.Reason)
	}
}

func TestSendAndAckRoundTrip(t *testing.T) {
	link := &fakeLink{}
	s := newTestSession(t, link)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	s.HandleState(State{}) // first report clears the unknown-status bit

	task := Walk(7, 3, "P1")
	if err := s.Send(context.Background(), SendTask(task)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(link.published) != 1 {
		t.Fatalf("expected 1 publish got %d", len(link.published))
	}
	// A second send while the first awaits its ack must be gated.
	err := s.Send(context.Background(), Inquire())
	var blocked *SendBlockedError
	if !errors.As(err, &blocked) || !blocked.Reason.Has(BlockAwaitingAck) {
		t.Fatalf("expected awaiting-ack gate, got %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ok, err := s.WaitForAck(context.Background())
		if err != nil || !ok {
			t.Errorf("wait for ack: ok=%t err=%v", ok, err)
		}
	}()
	s.HandleState(State{Task: &TaskInfo{Kind: TaskWalk, TaskNo: 7}})
	<-done

	if s.Gate(Inquire()) != 0 {
		t.Fatalf("gate must clear once acked, got %b", s.Gate(Inquire()))
	}
}

func TestWaitForAckSeesAckArrivedBeforeWait(t *testing.T) {
	link := &fakeLink{}
	s := newTestSession(t, link)
	_ = s.Connect(context.Background())
	s.HandleState(State{})

	if err := s.Send(context.Background(), Lock()); err != nil {
		t.Fatalf("send: %v", err)
	}
	// The vehicle answers before the caller gets around to waiting.
	s.HandleState(State{Locked: true})

	ok, err := s.WaitForAck(context.Background())
	if err != nil || !ok {
		t.Fatalf("early ack lost: ok=%t err=%v", ok, err)
	}
	// The resolution is consumed exactly once.
	if _, err := s.WaitForAck(context.Background()); err == nil {
		t.Fatalf("second wait must report nothing outstanding")
	}
}

func TestWaitForAckTimeoutClearsPending(t *testing.T) {
	link := &fakeLink{}
	s := newTestSession(t, link)
	_ = s.Connect(context.Background())
	s.HandleState(State{})

	if err := s.Send(context.Background(), Lock()); err != nil {
		t.Fatalf("send: %v", err)
	}
	ok, err := s.WaitForAck(context.Background())
	if ok || !errors.Is(err, ErrAckTimeout) {
		t.Fatalf("expected ack timeout, got ok=%t err=%v", ok, err)
	}
	if s.Gate(Inquire()).Has(BlockAwaitingAck) {
		t.Fatalf("timeout must clear the outstanding directive")
	}
}

func TestCompletedTaskBlocksDuplicateDispatch(t *testing.T) {
	link := &fakeLink{}
	s := newTestSession(t, link)
	_ = s.Connect(context.Background())

	// The vehicle reports task 7 running, then idle: task 7 is finished.
	s.HandleState(State{Task: &TaskInfo{Kind: TaskWalk, TaskNo: 7}})
	s.HandleState(State{})

	err := s.Send(context.Background(), SendTask(Walk(7, 3, "P1")))
	var blocked *SendBlockedError
	if !errors.As(err, &blocked) || !blocked.Reason.Has(BlockTaskCompleted) {
		t.Fatalf("expected task-completed gate, got %v", err)
	}
	// A fresh task number goes through.
	if err := s.Send(context.Background(), SendTask(Walk(8, 3, "P2"))); err != nil {
		t.Fatalf("fresh task must send: %v", err)
	}
}

func TestGateScopesTaskBitsToSendTask(t *testing.T) {
	link := &fakeLink{}
	s := newTestSession(t, link)
	_ = s.Connect(context.Background())
	s.HandleState(State{Task: &TaskInfo{TaskNo: 5}})

	if r := s.Gate(SendTask(Walk(6, 1, ""))); !r.Has(BlockActiveTask) {
		t.Fatalf("send task must be gated by active task, got %b", r)
	}
	if r := s.Gate(ClearTask()); r.Has(BlockActiveTask) {
		t.Fatalf("clear task must not be gated by active task, got %b", r)
	}
}

func TestGateManualAndErrorBits(t *testing.T) {
	link := &fakeLink{}
	s := newTestSession(t, link)
	_ = s.Connect(context.Background())
	s.HandleState(State{Manual: true, EStopped: true, ErrorCode: 42})

	r := s.Gate(Inquire())
	for _, bit := range []BlockReason{BlockManualMode, BlockEStopped, BlockDeviceError} {
		if !r.Has(bit) {
			t.Fatalf("expected bit %b set in %b", bit, r)
		}
	}
}

func TestSessionStats(t *testing.T) {
	link := &fakeLink{}
	s := newTestSession(t, link)
	_ = s.Connect(context.Background())
	s.HandleState(State{})

	if err := s.Send(context.Background(), Lock()); err != nil {
		t.Fatalf("send: %v", err)
	}
	s.HandleState(State{Locked: true})

	st := s.Stats()
	if st.Sent != 1 || st.Received != 2 {
		t.Fatalf("unexpected counters: %+v", st)
	}
	if st.LastDirective == nil || st.LastDirective.Kind != DirectiveLock {
		t.Fatalf("expected last directive lock, got %v", st.LastDirective)
	}
	if st.LastState == nil || !st.LastState.Locked {
		t.Fatalf("expected locked last state")
	}
	if st.AckLatencyMean <= 0 {
		t.Fatalf("expected positive ack latency mean, got %v", st.AckLatencyMean)
	}
	if st.Duration <= 0 {
		t.Fatalf("expected positive session duration")
	}
}

func TestUnsolicitedStatesAccepted(t *testing.T) {
	link := &fakeLink{}
	s := newTestSession(t, link)
	// Heartbeats may arrive before any connect or send.
	s.HandleState(State{Position: 12})
	if st := s.LastState(); st == nil || st.Position != 12 {
		t.Fatalf("unsolicited state not recorded: %v", st)
	}
	if s.Stats().Received != 1 {
		t.Fatalf("expected 1 received state")
	}
}
