package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsUntilCanceled(t *testing.T) {
	s := NewScheduler(nil)
	var ok, failing, panicking int32
	s.Add("ok", 5*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&ok, 1)
		return nil
	})
	s.Add("failing", 5*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&failing, 1)
		return errors.New("boom")
	})
	s.Add("panicking", 5*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&panicking, 1)
		panic("bad job")
	})
	s.Add("disabled", 0, func(context.Context) error {
		t.Error("disabled job must not run")
		return nil
	})
	assert.Equal(t, 3, s.Len())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ok) >= 2 && atomic.LoadInt32(&failing) >= 2 && atomic.LoadInt32(&panicking) >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
