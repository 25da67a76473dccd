package locks_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrife/regdb/storage/kv/locks"
)

func TestSharedReaders(t *testing.T) {
	table := locks.NewTable()
	ctx := context.Background()

	r1, err := table.RLock(ctx, "HKLM", time.Second)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	r2, err := table.RLock(ctx, "HKLM", time.Second)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if _, err := table.Lock(ctx, "HKLM", 10*time.Millisecond); err != locks.ErrTimeout {
		t.Fatalf("expected err to be %#v, got %#v", locks.ErrTimeout, err)
	}

	r1()
	r2()
	// releasing twice is harmless
	r2()

	w, err := table.Lock(ctx, "HKLM", time.Second)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	w()

	if n := table.Len(); n != 0 {
		t.Fatalf("expected lock table to be empty, got %d entries", n)
	}
}

func TestWriterBlocksReader(t *testing.T) {
	table := locks.NewTable()
	ctx := context.Background()

	w, err := table.Lock(ctx, "HKLM", time.Second)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if _, err := table.RLock(ctx, "HKLM", 10*time.Millisecond); err != locks.ErrTimeout {
		t.Fatalf("expected err to be %#v, got %#v", locks.ErrTimeout, err)
	}

	// other keys are independent
	r, err := table.RLock(ctx, "HKCU", 10*time.Millisecond)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	r()

	acquired := make(chan error)

	go func() {
		release, err := table.RLock(ctx, "HKLM", 5*time.Second)

		if err == nil {
			release()
		}

		acquired <- err
	}()

	time.Sleep(10 * time.Millisecond)
	w()

	if err := <-acquired; err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if n := table.Len(); n != 0 {
		t.Fatalf("expected lock table to be empty, got %d entries", n)
	}
}

func TestContextCancelled(t *testing.T) {
	table := locks.NewTable()
	ctx, cancel := context.WithCancel(context.Background())

	w, err := table.Lock(ctx, "HKLM", 0)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	defer w()

	cancel()

	if _, err := table.RLock(ctx, "HKLM", 0); err != context.Canceled {
		t.Fatalf("expected err to be %#v, got %#v", context.Canceled, err)
	}
}
