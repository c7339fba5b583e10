package core

import (
	"fmt"
	"sync"
)

// RoundLimiter enforces a maximum number of discussion rounds per session.
type RoundLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewRoundLimiter creates a new limiter with a max number of rounds.
// If max == 0, unlimited rounds are allowed.
func NewRoundLimiter(max int) *RoundLimiter {
	return &RoundLimiter{max: max}
}

// Acquire reserves the next round. The counter is left untouched when the
// limit has been reached.
func (rl *RoundLimiter) Acquire() (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.max > 0 && rl.count >= rl.max {
		return rl.count, fmt.Errorf("%w: %d", ErrRoundLimit, rl.max)
	}

	rl.count++

	return rl.count, nil
}

// Count returns the number of rounds acquired so far.
func (rl *RoundLimiter) Count() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return rl.count
}

// Remaining returns how many rounds are left before hitting the limit.
func (rl *RoundLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.max == 0 {
		return -1 // unlimited
	}

	return rl.max - rl.count
}

// Max returns the configured limit (0 = unlimited).
func (rl *RoundLimiter) Max() int {
	return rl.max
}
