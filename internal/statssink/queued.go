package statssink

import (
	"context"
)

// Forwarder is whatever the deployment actually writes summaries to (an
// HTTP client, a message queue producer, a DB writer) — a real
// implementation the external collaborator supplies.
type Forwarder interface {
	Forward(ctx context.Context, summary MatchSummary) error
}

// QueuedSink decouples RecordMatchEnd (called from inside the room's
// match-end path) from the actual write using a ring-buffer-with-drop
// channel: if the queue is full, the oldest pending summary is dropped
// rather than blocking the caller or growing without bound.
type QueuedSink struct {
	queue    chan MatchSummary
	forward  Forwarder
	dropped  int64
	stopCh   chan struct{}
	onDropFn func(MatchSummary)
}

// NewQueuedSink creates a sink with the given buffer depth and starts its
// background writer goroutine.
func NewQueuedSink(forward Forwarder, bufferSize int) *QueuedSink {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	s := &QueuedSink{
		queue:   make(chan MatchSummary, bufferSize),
		forward: forward,
		stopCh:  make(chan struct{}),
	}
	go s.writerLoop()
	return s
}

// RecordMatchEnd enqueues summary without blocking; if the queue is full the
// oldest pending entry is dropped to make room, matching the "must be
// non-blocking" contract.
func (s *QueuedSink) RecordMatchEnd(ctx context.Context, summary MatchSummary) {
	select {
	case s.queue <- summary:
		return
	default:
	}

	select {
	case <-s.queue:
		s.dropped++
	default:
	}

	select {
	case s.queue <- summary:
	default:
	}
}

// Dropped returns the number of summaries dropped due to a full queue.
func (s *QueuedSink) Dropped() int64 {
	return s.dropped
}

// Stop drains remaining entries with a background context and halts the
// writer goroutine.
func (s *QueuedSink) Stop() {
	close(s.stopCh)
	ctx := context.Background()
	for {
		select {
		case summary := <-s.queue:
			_ = s.forward.Forward(ctx, summary)
		default:
			return
		}
	}
}

func (s *QueuedSink) writerLoop() {
	ctx := context.Background()
	for {
		select {
		case <-s.stopCh:
			return
		case summary := <-s.queue:
			_ = s.forward.Forward(ctx, summary)
		}
	}
}
