package main

import (
	"encoding/binary"
	"math"

	"github.com/cellux/cyclist/internal/scheduler"
)

// engineReader adapts Cyclist.Generate to the io.Reader oto.Context.NewPlayer
// wants: interleaved stereo float32LE PCM, pulled one block at a time.
type engineReader struct {
	cy          *scheduler.Cyclist
	blockFrames int
	pending     []byte
}

func newEngineReader(cy *scheduler.Cyclist, blockFrames int) *engineReader {
	return &engineReader{cy: cy, blockFrames: blockFrames}
}

func (r *engineReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		left, right := r.cy.Generate(r.blockFrames)
		r.pending = make([]byte, 0, len(left)*8)
		for i := range left {
			r.pending = binary.LittleEndian.AppendUint32(r.pending, math.Float32bits(float32(left[i])))
			r.pending = binary.LittleEndian.AppendUint32(r.pending, math.Float32bits(float32(right[i])))
		}
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
