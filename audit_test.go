package adminauth

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type blockingSink struct {
	release  chan struct{}
	received chan struct{}
	emitted  chan AuditEvent
}

func newBlockingSink(buffer int) *blockingSink {
	return &blockingSink{
		release:  make(chan struct{}),
		received: make(chan struct{}, buffer),
		emitted:  make(chan AuditEvent, buffer),
	}
}

func (s *blockingSink) Emit(_ context.Context, event AuditEvent) {
	select {
	case s.received <- struct{}{}:
	default:
	}
	<-s.release
	s.emitted <- event
}

type countingSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *countingSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestAuditDispatcherDeliversToSink(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{
			EventType: auditEventPasswordChangeAttempt,
			Action:    ActionPasswordChange,
		})
	}
	d.Close()

	if got := sink.count(); got != 5 {
		t.Fatalf("expected 5 delivered events, got %d", got)
	}
	if got := d.Dropped(); got != 0 {
		t.Fatalf("expected 0 dropped, got %d", got)
	}
}

func TestAuditDispatcherDrainsOnClose(t *testing.T) {
	sink := newBlockingSink(64)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 64}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeAttempt})
	}
	close(sink.release)
	d.Close()

	if got := len(sink.emitted); got != 10 {
		t.Fatalf("expected 10 events drained on close, got %d", got)
	}
}

func TestAuditDispatcherDropIfFull(t *testing.T) {
	sink := newBlockingSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the worker, second fills the buffer. The rest
	// must be dropped rather than block the caller.
	for i := 0; i < 6; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeAttempt})
	}

	deadline := time.After(2 * time.Second)
	for d.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected dropped events, got none")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(sink.release)
	d.Close()

	delivered := uint64(len(sink.emitted))
	if delivered+d.Dropped() != 6 {
		t.Fatalf("expected delivered+dropped=6, got %d+%d", delivered, d.Dropped())
	}
}

func TestAuditDispatcherCriticalEventsResistShedding(t *testing.T) {
	sink := newBlockingSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// Occupy the worker: wait until the sink has received the first event
	// and parked on release, so the worker is known-busy.
	d.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeAttempt, Risk: RiskLow})
	select {
	case <-sink.received:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first event")
	}

	// Fill the buffer slot, then push low-risk traffic until something sheds.
	d.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeAttempt, Risk: RiskLow})
	for i := 0; i < 2; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeAttempt, Risk: RiskLow})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected low-risk events to shed on a full queue")
	}

	// A critical event waits for queue space instead of shedding.
	delivered := make(chan struct{})
	go func() {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeIdentityMism, Risk: RiskCritical})
		close(delivered)
	}()

	select {
	case <-delivered:
		t.Fatal("critical event must block while the queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	close(sink.release)
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("critical event was never enqueued")
	}
	d.Close()

	if got := d.DroppedCritical(); got != 0 {
		t.Fatalf("expected no critical drops, got %d", got)
	}
	found := false
	for len(sink.emitted) > 0 {
		if event := <-sink.emitted; event.Risk == RiskCritical {
			found = true
		}
	}
	if !found {
		t.Fatal("critical event was not delivered")
	}
}

func TestAuditDispatcherBlockingModeRespectsContext(t *testing.T) {
	sink := newBlockingSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: false}, sink)
	defer func() {
		close(sink.release)
		d.Close()
	}()

	d.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeAttempt})
	d.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeAttempt})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Emit(ctx, AuditEvent{EventType: auditEventPasswordChangeAttempt})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit did not return after context cancellation")
	}
}

func TestAuditDispatcherDisabledIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when auditing disabled")
	}

	// Nil dispatcher methods must be inert.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if got := d.Dropped(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestAuditDispatcherEmitAfterClose(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)
	d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeAttempt})

	if got := sink.count(); got != 0 {
		t.Fatalf("expected 0 events after close, got %d", got)
	}
}

func TestAuditDispatcherCloseIdempotent(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, &countingSink{})
	d.Close()
	d.Close()
}

func TestChannelSinkDelivery(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeCompleted})

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventPasswordChangeCompleted {
			t.Fatalf("unexpected event type %q", event.EventType)
		}
	default:
		t.Fatal("expected buffered event")
	}
}

func TestChannelSinkFullRespectsContext(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(context.Background(), AuditEvent{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		sink.Emit(ctx, AuditEvent{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit on full sink did not honor cancellation")
	}
}

func TestJSONWriterSinkOutput(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		EventType: auditEventPasswordChangeCompleted,
		Action:    ActionPasswordChange,
		Risk:      RiskHigh,
		ActorID:   "admin-1",
		TargetID:  "admin-1",
		Success:   true,
		Metadata:  map[string]string{"self_change": "true"},
	})
	sink.Emit(context.Background(), AuditEvent{
		EventType: auditEventInvalidCurrentPassword,
		Action:    ActionPasswordChange,
		Risk:      RiskHigh,
		Success:   false,
		Error:     ErrCurrentPasswordInvalid.Error(),
	})

	scanner := bufio.NewScanner(&buf)
	var lines []AuditEvent
	for scanner.Scan() {
		var event AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("invalid JSON line: %v", err)
		}
		lines = append(lines, event)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d", len(lines))
	}
	if lines[0].EventType != auditEventPasswordChangeCompleted || !lines[0].Success {
		t.Fatalf("unexpected first event: %+v", lines[0])
	}
	if lines[0].Metadata["self_change"] != "true" {
		t.Fatalf("metadata not preserved: %+v", lines[0].Metadata)
	}
	if lines[1].Error != ErrCurrentPasswordInvalid.Error() {
		t.Fatalf("error string not preserved: %+v", lines[1])
	}
}

func TestJSONWriterSinkNilWriter(t *testing.T) {
	sink := NewJSONWriterSink(nil)
	sink.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeAttempt})
}

func TestNoOpSinkDiscards(t *testing.T) {
	NoOpSink{}.Emit(context.Background(), AuditEvent{EventType: auditEventPasswordChangeAttempt})
}
