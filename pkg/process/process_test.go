package process_test

import (
	"context"
	"errors"
	"testing"

	"github.com/appbuilder/appbuilder/pkg/process"
)

func TestScope_ReverseOrder(t *testing.T) {
	s := process.NewScope()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		s.Defer(func() error {
			order = append(order, i)
			return nil
		})
	}

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(order) != 3 || order[0] != 2 || order[2] != 0 {
		t.Errorf("release order = %v, want [2 1 0]", order)
	}

	// Second close is a no-op
	if err := s.Close(); err != nil || len(order) != 3 {
		t.Errorf("second Close() ran releases again: %v", order)
	}
}

func TestScope_JoinsErrors(t *testing.T) {
	s := process.NewScope()
	errA := errors.New("a")
	errB := errors.New("b")
	s.Defer(func() error { return errA })
	s.Defer(func() error { return errB })

	err := s.Close()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Close() error = %v, want both errors", err)
	}
}

func TestScope_DeferAfterClose(t *testing.T) {
	s := process.NewScope()
	_ = s.Close()

	ran := false
	s.Defer(func() error {
		ran = true
		return nil
	})
	if !ran {
		t.Error("release registered after close should run immediately")
	}
}

func TestManager_StartStop(t *testing.T) {
	m := process.NewManager(nil)
	ctx := m.Start(context.Background())
	if !m.IsRunning() {
		t.Fatal("expected manager to be running")
	}

	m.Stop()
	if m.IsRunning() {
		t.Error("expected manager to be stopped")
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("expected context to be released on stop")
	}
}
