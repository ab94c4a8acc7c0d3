// Package config holds the flat process configuration used by
// cmd/cyclist: sample rate, tempo, sample-bank root and log level. It
// mirrors the teacher's manual os.Args scanning in mixtape.go rather than
// pulling in a flags framework neither the teacher nor the rest of the
// pack depends on.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mitchellh/go-homedir"
)

// Config is the engine's process-level configuration.
type Config struct {
	ScriptPath  string
	SamplesPath string
	SampleRate  int
	Cps         float64
	LogLevel    string
}

// Default returns the engine's out-of-the-box configuration.
func Default() Config {
	return Config{
		SamplesPath: "~/.cyclist/samples",
		SampleRate:  44100,
		Cps:         0.5,
		LogLevel:    "info",
	}
}

// ParseArgs scans argv the way mixtape.go's main() does: flags first,
// positional script path last. Supported flags are -samples <path>,
// -rate <hz>, -cps <n> and -log <level>.
func ParseArgs(argv []string) (Config, error) {
	cfg := Default()
	i := 0
	for i < len(argv) {
		arg := argv[i]
		switch arg {
		case "-samples":
			i++
			if i >= len(argv) {
				return cfg, fmt.Errorf("-samples requires a path")
			}
			cfg.SamplesPath = argv[i]
		case "-rate":
			i++
			if i >= len(argv) {
				return cfg, fmt.Errorf("-rate requires a number")
			}
			n, err := fmt.Sscanf(argv[i], "%d", &cfg.SampleRate)
			if err != nil || n != 1 {
				return cfg, fmt.Errorf("invalid -rate value: %s", argv[i])
			}
		case "-cps":
			i++
			if i >= len(argv) {
				return cfg, fmt.Errorf("-cps requires a number")
			}
			n, err := fmt.Sscanf(argv[i], "%g", &cfg.Cps)
			if err != nil || n != 1 {
				return cfg, fmt.Errorf("invalid -cps value: %s", argv[i])
			}
		case "-log":
			i++
			if i >= len(argv) {
				return cfg, fmt.Errorf("-log requires a level")
			}
			cfg.LogLevel = argv[i]
		default:
			if cfg.ScriptPath != "" {
				return cfg, fmt.Errorf("unexpected argument: %s", arg)
			}
			cfg.ScriptPath = arg
		}
		i++
	}
	if cfg.ScriptPath == "" {
		return cfg, fmt.Errorf("usage: cyclist [-samples path] [-rate hz] [-cps n] [-log level] <script.tidal>")
	}
	expanded, err := homedir.Expand(cfg.SamplesPath)
	if err != nil {
		return cfg, fmt.Errorf("resolving samples path: %w", err)
	}
	cfg.SamplesPath = expanded
	return cfg, nil
}

// ResolveLogLevel maps the config's string level to an slog.Level, the
// same four names the teacher's logger.go accepts.
func ResolveLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", level)
	}
}

// NewLogger builds the process-wide structured logger for the given level.
func NewLogger(level string) (*slog.Logger, error) {
	lvl, err := ResolveLogLevel(level)
	if err != nil {
		return nil, err
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler), nil
}
