package testutil

import (
	"math/rand"

	"github.com/rs/zerolog"
)

// NewTestRNG creates a deterministic random number generator for tests.
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger returns a no-op logger for tests.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}
