package frame

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrStopped is returned by Send once the stream has ended.
var ErrStopped = errors.New("stream stopped")

// Stream runs a frame reader and a frame writer over a pair of streams.
//
// Inbound frames are read by an internal goroutine and queued; Signal is
// triggered for each one and closed when reading ends. Outbound frames are
// queued by Send and written by a second goroutine, after the hello message
// given to NewStream. Nothing starts until Start.
type Stream struct {
	in    io.ReadCloser
	out   io.WriteCloser
	hello interface{}

	mu      sync.Mutex
	err     error
	started bool
	stopped bool
	closing bool

	signal     chan struct{}
	queue      chan []byte
	outbound   chan []byte
	done       chan struct{}
	finishOnce sync.Once
	closeOnce  sync.Once
}

func NewStream(in io.ReadCloser, out io.WriteCloser, hello interface{}) *Stream {
	return &Stream{
		in:       in,
		out:      out,
		hello:    hello,
		signal:   make(chan struct{}, 2),
		queue:    make(chan []byte, 128),
		outbound: make(chan []byte, 256),
		done:     make(chan struct{}),
	}
}

// Start launches the reader and writer once. It returns the error that
// ended the stream, if any.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.started = true
		go s.read()
		go s.write()
	}
	return s.err
}

func (s *Stream) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Err returns the error that ended the stream, or nil if it is running or
// was closed with Close.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Fail records err as fatal and closes both streams. Only the first error
// is kept, and errors after Close are ignored. It reports whether err was
// recorded.
func (s *Stream) Fail(err error) bool {
	s.mu.Lock()
	record := s.err == nil && !s.closing
	if record {
		s.err = err
	}
	s.mu.Unlock()

	if record {
		s.in.Close()
		s.out.Close()
	}
	return record
}

// Signal is triggered when frames are queued, or when Wake is called. It is
// closed once reading ends and the queue holds no more frames to add.
func (s *Stream) Signal() <-chan struct{} {
	return s.signal
}

// Wake triggers Signal without a frame, unless the stream has ended.
func (s *Stream) Wake() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Next returns the next queued frame without blocking. ok is false when the
// queue is empty or the stream has ended.
func (s *Stream) Next() (data []byte, ok bool) {
	select {
	case data, ok = <-s.queue:
		return data, ok
	default:
		return nil, false
	}
}

// Send encodes msg and queues it for writing. It blocks only while the
// outbound queue is full.
func (s *Stream) Send(msg interface{}) error {
	if err := s.Start(); err != nil {
		return err
	}

	buf, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("frame encoding failed: %w", err)
	}

	select {
	case <-s.done:
		return ErrStopped
	default:
	}

	select {
	case s.outbound <- buf:
		return nil
	case <-s.done:
		return ErrStopped
	}
}

// Close shuts down both streams. The reader stops without recording an
// error.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		started := s.started
		s.started = true
		s.mu.Unlock()

		s.in.Close()
		s.out.Close()
		if !started {
			close(s.queue)
			s.finish()
		}
	})
	return nil
}

func (s *Stream) read() {
	defer s.finish()
	defer close(s.queue)

	rd := NewReader(s.in)
	for s.Err() == nil {
		blob, err := rd.ReadFrame()
		if err != nil {
			if err != io.EOF {
				s.Fail(err)
			}
			return
		}

		s.queue <- blob
		s.Wake()
	}
}

func (s *Stream) write() {
	w := NewWriter(s.out)
	if s.hello != nil {
		if err := w.WriteMessage(s.hello); err != nil {
			s.Fail(err)
			return
		}
	}

	for {
		select {
		case payload := <-s.outbound:
			if err := w.WriteFrame(payload); err != nil {
				s.Fail(err)
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Stream) finish() {
	s.finishOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		close(s.signal)
		s.mu.Unlock()
		close(s.done)
	})
}
