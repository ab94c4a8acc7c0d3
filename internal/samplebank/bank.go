// Package samplebank implements spec.md §6's sample-bank contract: decode
// a WAV file, convert it to float samples, resample it once to the
// engine's sample rate, and cache the result for the engine's lifetime.
// Grounded on the teacher's resample.go (gosamplerate.Simple one-shot
// resampling path) and tape.go's Tape (a decoded-channel buffer played
// back with linear interpolation, the same shape internal/voice's
// SampleVoice uses).
package samplebank

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dh1tw/gosamplerate"
	"github.com/go-audio/wav"
)

// resampleConverter mirrors the teacher's :resample/converter config
// value (an int 0..4 selecting one of gosamplerate's converter
// qualities); medium quality is a reasonable default for one-shot
// samples loaded ahead of playback.
const resampleConverter = 1

type cacheKey struct {
	name string
	n    int
}

// Bank loads, resamples and caches decoded one-shot samples.
type Bank struct {
	samplesPath string
	sampleRate  float64
	log         *slog.Logger

	mu    sync.Mutex
	cache map[cacheKey]*entry
}

type entry struct {
	channels [][]float32
	ok       bool
}

// New builds a Bank rooted at samplesPath, resampling every loaded file to
// sampleRate.
func New(samplesPath string, sampleRate float64, log *slog.Logger) *Bank {
	if log == nil {
		log = slog.Default()
	}
	return &Bank{
		samplesPath: samplesPath,
		sampleRate:  sampleRate,
		log:         log,
		cache:       make(map[cacheKey]*entry),
	}
}

// Get returns the decoded, resampled channel data for name/n, loading and
// caching it on first access. ok is false when the file does not exist or
// fails to decode, per spec.md §6's "returns an empty descriptor when not
// found" contract; the failure is logged once per key.
func (b *Bank) Get(name string, n int) (channels [][]float32, sampleRate float64, ok bool) {
	key := cacheKey{name, n}

	b.mu.Lock()
	if e, cached := b.cache[key]; cached {
		b.mu.Unlock()
		return e.channels, b.sampleRate, e.ok
	}
	b.mu.Unlock()

	channels, loadOk := b.load(name, n)

	b.mu.Lock()
	b.cache[key] = &entry{channels: channels, ok: loadOk}
	b.mu.Unlock()

	return channels, b.sampleRate, loadOk
}

func (b *Bank) load(name string, n int) ([][]float32, bool) {
	path := filepath.Join(b.samplesPath, name, fmt.Sprintf("%d.wav", n))
	f, err := os.Open(path)
	if err != nil {
		b.log.Warn("sample not found", "path", path, "error", err)
		return nil, false
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		b.log.Warn("sample decode failed", "path", path, "error", err)
		return nil, false
	}

	nchannels := buf.Format.NumChannels
	if nchannels > 2 {
		nchannels = 2
	}
	if nchannels < 1 {
		nchannels = 1
	}

	fullScale := float64(int64(1) << uint(buf.SourceBitDepth-1))
	if fullScale <= 0 {
		fullScale = 1 << 15
	}
	srcChannels := buf.Format.NumChannels
	nframes := len(buf.Data) / srcChannels

	deinterleaved := make([][]float32, nchannels)
	for c := range deinterleaved {
		deinterleaved[c] = make([]float32, nframes)
	}
	for i := 0; i < nframes; i++ {
		for c := 0; c < nchannels; c++ {
			deinterleaved[c][i] = float32(float64(buf.Data[i*srcChannels+c]) / fullScale)
		}
	}

	srcRate := float64(buf.Format.SampleRate)
	if srcRate <= 0 || srcRate == b.sampleRate {
		return deinterleaved, true
	}

	ratio := b.sampleRate / srcRate
	if !gosamplerate.IsValidRatio(ratio) {
		b.log.Warn("sample resample ratio out of range", "path", path, "ratio", ratio)
		return deinterleaved, true
	}

	resampled := make([][]float32, nchannels)
	for c := range deinterleaved {
		out, err := gosamplerate.Simple(deinterleaved[c], ratio, 1, resampleConverter)
		if err != nil {
			b.log.Warn("resample failed", "path", path, "error", err)
			return deinterleaved, true
		}
		resampled[c] = out
	}
	return resampled, true
}
