package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *countingCleaner) Cleanup() (int64, error) {
	c.calls.Add(1)
	return 2, c.err
}

func TestRegister(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"@hourly", false},
		{"*/5 * * * *", false},
		{"@every 30m", false},
		{"not a schedule", true},
		{"* * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			err := New(&countingCleaner{}).Register(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register(%q) err = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
		})
	}
}

func TestRunCleanup(t *testing.T) {
	c := &countingCleaner{}
	New(c).RunCleanup()
	if c.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", c.calls.Load())
	}

	// Errors are logged, not fatal.
	failing := &countingCleaner{err: errors.New("db locked")}
	New(failing).RunCleanup()
	if failing.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", failing.calls.Load())
	}
}

func TestScheduledCleanupRuns(t *testing.T) {
	c := &countingCleaner{}
	s := New(c)
	if err := s.Register("@every 1s"); err != nil {
		t.Fatalf("register: %v", err)
	}

	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for c.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("cleanup never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
