package watch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cellux/cyclist/internal/pattern"
)

func touch(t *testing.T, path, content string, at time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatal(err)
	}
}

func TestLoopLoadsFirstSightOnceThenSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.tidal")
	base := time.Now().Add(-time.Hour)
	touch(t, path, "v1", base)

	var calls []string
	l := New(path, time.Millisecond, func(p string) (pattern.Pattern[pattern.Value], error) {
		calls = append(calls, p)
		return pattern.Silence[pattern.Value](), nil
	}, func(pattern.Pattern[pattern.Value]) {}, nil)

	l.pollOnce()
	if len(calls) != 1 {
		t.Fatalf("expected first sighting to evaluate once, got %d calls", len(calls))
	}
	l.pollOnce()
	if len(calls) != 1 {
		t.Fatalf("expected unchanged mtime to skip re-evaluation, got %d calls", len(calls))
	}
}

func TestLoopReloadsOnModTimeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.tidal")
	base := time.Now().Add(-time.Hour)
	touch(t, path, "v1", base)

	var installed []string
	l := New(path, time.Millisecond, func(p string) (pattern.Pattern[pattern.Value], error) {
		return pattern.Silence[pattern.Value](), nil
	}, func(pattern.Pattern[pattern.Value]) {
		installed = append(installed, "installed")
	}, nil)

	l.pollOnce()
	if len(installed) != 1 {
		t.Fatalf("expected pattern installed on first sight, got %d", len(installed))
	}

	touch(t, path, "v2", base.Add(time.Second))
	l.pollOnce()
	if len(installed) != 2 {
		t.Fatalf("expected pattern re-installed after mtime change, got %d", len(installed))
	}

	l.pollOnce()
	if len(installed) != 2 {
		t.Fatalf("expected no further installs without a new mtime, got %d", len(installed))
	}
}

func TestLoopKeepsPreviousPatternOnEvalError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.tidal")
	base := time.Now().Add(-time.Hour)
	touch(t, path, "broken", base)

	var installed int
	l := New(path, time.Millisecond, func(p string) (pattern.Pattern[pattern.Value], error) {
		return pattern.Silence[pattern.Value](), errors.New("parse error")
	}, func(pattern.Pattern[pattern.Value]) {
		installed++
	}, nil)

	l.pollOnce()
	if installed != 0 {
		t.Fatalf("expected no install on evaluation error, got %d", installed)
	}
}

func TestLoopMissingFileIsNoop(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "missing.tidal"), time.Millisecond, func(p string) (pattern.Pattern[pattern.Value], error) {
		t.Fatal("should not evaluate a missing file")
		return pattern.Silence[pattern.Value](), nil
	}, func(pattern.Pattern[pattern.Value]) {}, nil)

	l.pollOnce()
}

func TestLoopRunStopsOnClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.tidal")
	touch(t, path, "v1", time.Now())

	l := New(path, time.Millisecond, func(p string) (pattern.Pattern[pattern.Value], error) {
		return pattern.Silence[pattern.Value](), nil
	}, func(pattern.Pattern[pattern.Value]) {}, nil)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		l.Run(stop)
		close(done)
	}()
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Run to return after stop closed")
	}
}
