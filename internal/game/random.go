package game

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// Random supplies uniform draws in [0,1). Every probabilistic decision in the
// engine is a single draw compared against a threshold.
type Random interface {
	Float64() float64
}

// NewRandom returns a deterministic source for seed.
func NewRandom(seed int64) Random {
	return mrand.New(mrand.NewSource(seed)) // #nosec G404 -- game simulation only
}

// NewSeed draws a seed from the operating system's entropy source.
func NewSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) & (1<<63 - 1)), nil
}
