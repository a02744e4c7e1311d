package loop

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	mu        sync.Mutex
	signal    chan struct{}
	processed int
	failAt    int
	err       error
}

func (f *fakeProcessor) Process() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed++
	if f.failAt > 0 && f.processed == f.failAt {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeProcessor) ProcessSignal() <-chan struct{} { return f.signal }
func (f *fakeProcessor) Err() error                     { return f.err }

func (f *fakeProcessor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processed
}

func TestRunUntilClosed(t *testing.T) {
	p := &fakeProcessor{signal: make(chan struct{}, 3), err: errors.New("closed")}
	p.signal <- struct{}{}
	p.signal <- struct{}{}
	close(p.signal)

	err := Run(p)
	assert.EqualError(t, err, "closed")
	assert.Equal(t, 2, p.count())
}

func TestRunStopsOnProcessError(t *testing.T) {
	p := &fakeProcessor{signal: make(chan struct{}, 3), failAt: 1}
	p.signal <- struct{}{}
	p.signal <- struct{}{}

	assert.EqualError(t, Run(p), "boom")
	assert.Equal(t, 1, p.count())
}

func TestRunLockableExcludesProcess(t *testing.T) {
	p := &fakeProcessor{signal: make(chan struct{})}
	lock, errs := RunLockable(p)

	lock.Lock()
	sent := make(chan struct{})
	go func() {
		p.signal <- struct{}{}
		close(sent)
	}()

	select {
	case <-sent:
		t.Fatal("signal consumed while locked")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 0, p.count())
	lock.Unlock()

	<-sent
	require.Eventually(t, func() bool { return p.count() == 1 }, time.Second, 5*time.Millisecond)

	close(p.signal)
	assert.NoError(t, <-errs)
}
