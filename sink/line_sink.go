// Package sink provides the outbound half of a client connection: a
// bounded queue between the routing engine and one transport writer.
package sink

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	"sync"
)

// LineSink decouples message fan-out from transport writes. Deliver is
// called by whoever routes a message; Pump runs on the session's own
// goroutine and drains the queue to the wire. A stalled client fills the
// buffer and starts losing lines, it never blocks a sender.
//
// The single queue plus the single pump preserve per-recipient FIFO order.
type LineSink struct {
	lines     chan string
	done      chan struct{}
	closeOnce sync.Once
}

func NewLineSink(bufferSize int) *LineSink {
	return &LineSink{
		lines: make(chan string, bufferSize),
		done:  make(chan struct{}),
	}
}

// Consume is called by fanout
// Redirect the line through the owner of the queue
// The pump will take it from now
func (s *LineSink) Deliver(line string) error {
	select {
	case <-s.done:
		return errors.ErrSinkClosed
	default:
	}
	select {
	case s.lines <- line:
		return nil
	case <-s.done:
		return errors.ErrSinkClosed
	default:
		// Queue full: the recipient is too slow, drop the line for them.
		return errors.ErrSinkFull
	}
}

// Pump writes queued lines to the transport until the sink is closed, the
// context is canceled, or a write fails. The write error is returned so the
// caller can treat the transport as gone.
func (s *LineSink) Pump(ctx context.Context, transport contract.LineTransport) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case line := <-s.lines:
			if err := transport.WriteLine(line); err != nil {
				return err
			}
		}
	}
}

// Close makes every subsequent Deliver fail fast and stops the pump.
// Safe to call more than once.
func (s *LineSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
