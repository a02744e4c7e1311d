// Package loop drives Processors: objects that queue work from a reader
// goroutine and apply it only when the application calls Process.
package loop

import "sync"

// Processor is implemented by pipe.Mux and native.Connection.
type Processor interface {
	// Process handles pending work without blocking. Errors are fatal.
	Process() error
	// ProcessSignal is signalled when there is work, and closed when the
	// processor ends.
	ProcessSignal() <-chan struct{}
	// Err returns the error that ended the processor, if any.
	Err() error
}

// Run processes work until the processor is closed.
func Run(p Processor) error {
	signal := p.ProcessSignal()
	for {
		if _, open := <-signal; !open {
			return p.Err()
		}
		if err := p.Process(); err != nil {
			return err
		}
	}
}

type channelLocker struct {
	L chan struct{}
	U chan struct{}
}

func newChannelLocker() *channelLocker {
	return &channelLocker{
		L: make(chan struct{}),
		U: make(chan struct{}),
	}
}

func (cl *channelLocker) Lock() {
	cl.L <- struct{}{}
}

func (cl *channelLocker) Unlock() {
	cl.U <- struct{}{}
}

// RunLockable executes Run in a separate goroutine and returns a sync.Locker
// for mutually exclusive execution with Process: while the lock is held,
// Process is not running and will not start.
//
// The returned channel receives one error value and closes when the
// processor ends.
func RunLockable(p Processor) (sync.Locker, <-chan error) {
	lock := newChannelLocker()
	errChannel := make(chan error, 1)
	signal := p.ProcessSignal()

	go func() {
		defer close(errChannel)
		for {
			select {
			case _, open := <-signal:
				if !open {
					errChannel <- p.Err()
					return
				} else if err := p.Process(); err != nil {
					errChannel <- err
					return
				}
			case <-lock.L:
				<-lock.U
			}
		}
	}()

	return lock, errChannel
}
