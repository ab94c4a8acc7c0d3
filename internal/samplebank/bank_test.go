package samplebank

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// writeTestWav writes a minimal 16-bit PCM mono WAV file, used only to
// exercise Bank's decode path without depending on any fixture assets.
func writeTestWav(t *testing.T, path string, sampleRate int, data []int16) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dataSize := len(data) * 2
	byteRate := sampleRate * 2

	write := func(b []byte) {
		if _, err := f.Write(b); err != nil {
			t.Fatal(err)
		}
	}
	u32 := func(v uint32) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return b
	}
	u16 := func(v uint16) []byte {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		return b
	}

	write([]byte("RIFF"))
	write(u32(uint32(36 + dataSize)))
	write([]byte("WAVE"))
	write([]byte("fmt "))
	write(u32(16))
	write(u16(1)) // PCM
	write(u16(1)) // mono
	write(u32(uint32(sampleRate)))
	write(u32(uint32(byteRate)))
	write(u16(2))  // block align
	write(u16(16)) // bits per sample
	write([]byte("data"))
	write(u32(uint32(dataSize)))
	for _, s := range data {
		write(u16(uint16(s)))
	}
}

func TestBankDecodesAndCachesSample(t *testing.T) {
	dir := t.TempDir()
	data := []int16{0, 16384, -16384, 32767, -32768, 0}
	writeTestWav(t, filepath.Join(dir, "bd", "0.wav"), 44100, data)

	b := New(dir, 44100, nil)
	channels, sr, ok := b.Get("bd", 0)
	if !ok {
		t.Fatal("expected sample to load")
	}
	if sr != 44100 {
		t.Fatalf("got sampleRate %v, want 44100", sr)
	}
	if len(channels) != 1 || len(channels[0]) != len(data) {
		t.Fatalf("got channels %v, want 1x%d", channels, len(data))
	}
	if channels[0][0] != 0 {
		t.Fatalf("first sample = %v, want 0", channels[0][0])
	}

	channels2, _, ok2 := b.Get("bd", 0)
	if !ok2 || &channels2[0][0] != &channels[0][0] {
		t.Fatalf("expected second Get to return the cached slice")
	}
}

func TestBankMissingSampleReturnsNotOk(t *testing.T) {
	dir := t.TempDir()
	b := New(dir, 44100, nil)
	_, _, ok := b.Get("missing", 0)
	if ok {
		t.Fatalf("expected missing sample to report not-ok")
	}
}

func TestBankResamplesToTargetRate(t *testing.T) {
	dir := t.TempDir()
	data := make([]int16, 4410)
	for i := range data {
		data[i] = int16(i % 1000)
	}
	writeTestWav(t, filepath.Join(dir, "hh", "0.wav"), 22050, data)

	b := New(dir, 44100, nil)
	channels, sr, ok := b.Get("hh", 0)
	if !ok {
		t.Fatal("expected sample to load")
	}
	if sr != 44100 {
		t.Fatalf("got sampleRate %v, want 44100", sr)
	}
	// resampling 22050Hz source to 44100Hz should roughly double frame count
	if len(channels[0]) < len(data) {
		t.Fatalf("expected upsampled frame count >= source, got %d < %d", len(channels[0]), len(data))
	}
}
