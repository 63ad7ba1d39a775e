package adminauth

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples audit emission from sink latency. Events flow
// through a buffered queue drained by a single worker goroutine; Close stops
// the worker after the queue is empty.
//
// Drop policy is risk-aware: with DropIfFull set, events below critical risk
// are shed when the queue is full, but critical events always take the
// blocking path. A critical event is lost only when the caller's context is
// cancelled or the dispatcher is closing, and every such loss is counted.
type auditDispatcher struct {
	cfg   AuditConfig
	sink  AuditSink
	queue chan AuditEvent
	done  chan struct{}
	wg    sync.WaitGroup

	dropped         atomic.Uint64
	droppedCritical atomic.Uint64
	closed          atomic.Bool
	closeOnce       sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		cfg:   cfg,
		sink:  sink,
		queue: make(chan AuditEvent, cfg.BufferSize),
		done:  make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			d.drainQueue()
			return
		}
	}
}

func (d *auditDispatcher) drainQueue() {
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

func (d *auditDispatcher) countDrop(event AuditEvent) {
	d.dropped.Add(1)
	if event.Risk == RiskCritical {
		d.droppedCritical.Add(1)
	}
}

// Emit describes the emit operation and its observable behavior.
//
// Emit may return an error when input validation, dependency calls, or security checks fail.
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull && event.Risk != RiskCritical {
		select {
		case d.queue <- event:
		case <-d.done:
		default:
			d.countDrop(event)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.countDrop(event)
	case <-d.done:
		d.countDrop(event)
	}
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped describes the dropped operation and its observable behavior.
//
// Dropped may return an error when input validation, dependency calls, or security checks fail.
// Dropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedCritical describes the droppedcritical operation and its observable behavior.
//
// DroppedCritical may return an error when input validation, dependency calls, or security checks fail.
// DroppedCritical does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) DroppedCritical() uint64 {
	if d == nil {
		return 0
	}
	return d.droppedCritical.Load()
}
