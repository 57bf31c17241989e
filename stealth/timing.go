package stealth

import (
	"math/rand"
	"time"
)

// RandomDelay returns a duration in [minMs, maxMs] drawn from the given rand
// source. The source is injected so tests can pin seeds.
func RandomDelay(rng *rand.Rand, minMs, maxMs int) time.Duration {
	if minMs < 0 {
		minMs = 0
	}
	if maxMs < minMs {
		maxMs = minMs
	}
	n := rng.Intn(maxMs-minMs+1) + minMs
	return time.Duration(n) * time.Millisecond
}
