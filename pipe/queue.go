package pipe

import (
	"context"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/thejerf/suture/v4"

	"github.com/CrimsonAS/enaml/metrics"
)

// Queue is an asynchronous in-process pipe. Put appends to an unbounded FIFO
// and returns immediately; Serve delivers the FIFO to the callback in order.
// Messages put before a callback exists are held until one is installed.
//
// Queue implements suture.Service.
type Queue struct {
	id   string
	box  *inbox
	wake chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

func NewQueue(opts ...Option) *Queue {
	o := buildOptions(opts)
	id := ulid.Make().String()
	return &Queue{
		id:   id,
		box:  newInbox("queue", id, o.log),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (q *Queue) ID() string {
	return q.id
}

func (q *Queue) String() string {
	return "queue:" + q.id
}

func (q *Queue) Put(message string, ctx Context) (interface{}, error) {
	if err := q.box.push(message, ctx); err != nil {
		return nil, err
	}
	metrics.MessagesSent.WithLabelValues("queue", message).Inc()
	q.notify()
	return nil, nil
}

func (q *Queue) SetCallback(fn Handler) {
	if q.box.setCallback(fn) {
		q.notify()
	}
}

func (q *Queue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of messages not yet delivered.
func (q *Queue) Pending() int {
	return q.box.len()
}

// Drain synchronously delivers everything deliverable and returns the count.
// It is safe to call concurrently with Serve; only one delivers at a time.
func (q *Queue) Drain() int {
	return q.box.drain()
}

// Serve delivers messages until ctx is done or the queue is closed.
func (q *Queue) Serve(ctx context.Context) error {
	for {
		q.box.drain()
		select {
		case <-ctx.Done():
			return nil
		case <-q.done:
			return suture.ErrDoNotRestart
		case <-q.wake:
		}
	}
}

// Close stops delivery. Pending messages are discarded and counted as
// dropped; later calls to Put fail with ErrClosed.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.box.close()
		close(q.done)
	})
	return nil
}

// QueueFactory allocates Queue pairs and adds both queues to sup, so that
// delivery runs for as long as the supervisor does.
func QueueFactory(sup *suture.Supervisor, opts ...Option) Factory {
	o := buildOptions(opts)
	return FactoryFunc(func() (Pipe, Pipe, error) {
		send, recv := NewQueue(opts...), NewQueue(opts...)
		sup.Add(send)
		sup.Add(recv)
		o.log.Debug("queue pair added", slog.String("send", send.id), slog.String("recv", recv.id))
		return send, recv, nil
	})
}
