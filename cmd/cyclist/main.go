// cmd/cyclist is the reference host: it wires a file-watch loop, a sample
// bank, the scheduler and an audio device together the way mixtape.go wires
// its VM, GUI and oto context.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cellux/cyclist/internal/config"
	"github.com/cellux/cyclist/internal/control"
	"github.com/cellux/cyclist/internal/mininotation"
	"github.com/cellux/cyclist/internal/pattern"
	"github.com/cellux/cyclist/internal/samplebank"
	"github.com/cellux/cyclist/internal/scheduler"
	"github.com/cellux/cyclist/internal/watch"
)

func main() {
	cfg, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}

	tempo := scheduler.NewTempo()
	tempo.SetCps(cfg.Cps)

	bank := samplebank.New(cfg.SamplesPath, float64(cfg.SampleRate), logger)
	cy := scheduler.New(float64(cfg.SampleRate), tempo, bank, logger)

	loop := watch.New(cfg.ScriptPath, 100*time.Millisecond, evaluate, cy.SetPattern, logger)
	stop := make(chan struct{})
	go loop.Run(stop)

	otoCtx, readyChan, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	<-readyChan

	player := otoCtx.NewPlayer(newEngineReader(cy, 1024))
	player.Play()
	defer player.Close()

	logger.Info("cyclist running", "script", cfg.ScriptPath, "sampleRate", cfg.SampleRate, "cps", tempo.Cps())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	close(stop)
	logger.Info("cyclist stopped")
}

// evaluate is the watch.Evaluator: it reads the script file as
// mini-notation and wraps the result with the s(...) control so bare
// sample names become playable sound events, per spec.md's end-to-end
// scenarios.
func evaluate(path string) (pattern.Pattern[pattern.Value], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	compiled, err := mininotation.Compile(path, string(data))
	if err != nil {
		return nil, err
	}
	return control.S(compiled).P, nil
}
