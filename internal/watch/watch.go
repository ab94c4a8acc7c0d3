// Package watch polls a script file's mtime and re-evaluates it on
// change, per spec.md §6's file-watch contract. Grounded on the
// SynteLang-SynteLang interpreter's reloadListing() (bsd-linux.go): sleep,
// os.Stat, compare ModTime, skip unchanged files — generalised here from
// polling a directory of numbered listings to polling one script path.
package watch

import (
	"log/slog"
	"os"
	"time"

	"github.com/cellux/cyclist/internal/pattern"
)

// Evaluator reads and compiles the script at path into a new pattern, or
// returns an error if it fails to parse/evaluate.
type Evaluator func(path string) (pattern.Pattern[pattern.Value], error)

// Loop polls Path every Interval and, on a changed mtime, re-evaluates its
// contents and calls OnPattern with the result.
type Loop struct {
	Path      string
	Interval  time.Duration
	Eval      Evaluator
	OnPattern func(pattern.Pattern[pattern.Value])
	Log       *slog.Logger

	lastMod time.Time
}

// New builds a Loop with a default 100ms poll interval if interval <= 0.
func New(path string, interval time.Duration, eval Evaluator, onPattern func(pattern.Pattern[pattern.Value]), log *slog.Logger) *Loop {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Loop{Path: path, Interval: interval, Eval: eval, OnPattern: onPattern, Log: log}
}

// Run polls until stop is closed. Errors from a changed-but-broken script
// are logged and the previous pattern keeps playing, per spec.md §6.
func (l *Loop) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.pollOnce()
		}
	}
}

func (l *Loop) pollOnce() {
	st, err := os.Stat(l.Path)
	if err != nil {
		return
	}
	if st.ModTime().Equal(l.lastMod) {
		return
	}
	first := l.lastMod.IsZero()
	l.lastMod = st.ModTime()

	p, err := l.Eval(l.Path)
	if err != nil {
		l.Log.Error("watch: evaluation failed", "path", l.Path, "error", err)
		return
	}
	if first {
		l.Log.Info("watch: loaded", "path", l.Path)
	} else {
		l.Log.Info("watch: reloaded", "path", l.Path)
	}
	l.OnPattern(p)
}
