// Package random provides the entropy source for turn mechanics.
//
// Seeds come from crypto/rand so concurrent processes never share a
// difficulty sequence; draws come from a cheap PCG generator.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Roller returns a goroutine-safe draw function yielding values in [0, 1).
func Roller() (func() float64, error) {
	seed1, err := NewSeed()
	if err != nil {
		return nil, err
	}
	seed2, err := NewSeed()
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	rng := rand.New(rand.NewPCG(seed1, seed2))

	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return rng.Float64()
	}, nil
}
