package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAcquireLock_WritesHolder(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir, "serve :8080")
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer lock.Release()

	if lock.Path() != filepath.Join(dir, LockFileName) {
		t.Errorf("unexpected lock path %s", lock.Path())
	}
	data, err := os.ReadFile(lock.Path())
	if err != nil {
		t.Fatalf("Failed to read lock file: %v", err)
	}
	h := parseHolder(string(data))
	if h.PID != os.Getpid() || h.Owner != "serve :8080" || h.Started.IsZero() {
		t.Errorf("unexpected holder %+v from %q", h, data)
	}
}

func TestAcquireLock_Conflict(t *testing.T) {
	dir := t.TempDir()

	lock1, err := AcquireLock(dir, "first")
	if err != nil {
		t.Fatalf("Failed to acquire first lock: %v", err)
	}
	defer lock1.Release()

	lock2, err := AcquireLock(dir, "second")
	if err == nil {
		lock2.Release()
		t.Fatal("Second lock acquisition should have failed")
	}

	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("Expected LockError, got: %T", err)
	}
	if lockErr.Holder.PID != os.Getpid() || lockErr.Holder.Owner != "first" {
		t.Errorf("failed attempt should report the original holder, got %+v", lockErr.Holder)
	}
	msg := err.Error()
	if !strings.Contains(msg, "another FlareFunnel instance") || !strings.Contains(msg, dir) {
		t.Errorf("error message should name the conflict and lock path: %s", msg)
	}
	if !strings.Contains(msg, "(running)") {
		t.Errorf("holder is this test process and should be reported running: %s", msg)
	}
}

func TestRelease(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireLock(dir, "")
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("Failed to release lock: %v", err)
	}
	if _, err := os.Stat(lock.Path()); !os.IsNotExist(err) {
		t.Errorf("Lock file should be removed after release")
	}
	if err := lock.Release(); err != nil {
		t.Errorf("Second release should be a no-op: %v", err)
	}
	var nilLock *Lock
	if err := nilLock.Release(); err != nil {
		t.Errorf("nil release should be a no-op: %v", err)
	}

	again, err := AcquireLock(dir, "")
	if err != nil {
		t.Fatalf("Failed to reacquire lock after release: %v", err)
	}
	again.Release()
}

func TestAcquireLock_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	lock, err := AcquireLock(dir, "")
	if err != nil {
		t.Fatalf("Should create the directory and acquire lock: %v", err)
	}
	defer lock.Release()
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Directory should have been created: %v", err)
	}
}

func TestParseHolder(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		content string
		want    Holder
	}{
		{"full", formatHolder(Holder{PID: 42, Owner: "serve :9000", Started: started}), Holder{PID: 42, Owner: "serve :9000", Started: started}},
		{"pid only", "pid=12345\n", Holder{PID: 12345}},
		{"invalid pid", "pid=abc\nowner=x", Holder{Owner: "x"}},
		{"negative pid", "pid=-4", Holder{}},
		{"no equals", "pid12345", Holder{}},
		{"empty", "", Holder{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseHolder(tt.content)
			if got.PID != tt.want.PID || got.Owner != tt.want.Owner || !got.Started.Equal(tt.want.Started) {
				t.Errorf("parseHolder(%q) = %+v, want %+v", tt.content, got, tt.want)
			}
		})
	}
}

func TestHolderString(t *testing.T) {
	if got := (Holder{}).String(); got != "unknown process" {
		t.Errorf("zero holder = %q", got)
	}
	got := Holder{PID: os.Getpid(), Owner: "seed"}.String()
	if !strings.Contains(got, "running") || !strings.Contains(got, "seed") {
		t.Errorf("holder string = %q", got)
	}
}
