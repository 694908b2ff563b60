// ABOUTME: Dry/wet mix controller for the effects graph
// ABOUTME: Maps a single mix amount to dry and wet gain coefficients
package effects

import (
	"log"
	"sync"
)

// WetBoost is the multiplier applied to the wet gain at full mix.
// The reverb path is perceptually quiet next to the dry signal, so the
// top of the control range doubles it instead of following an
// equal-power crossfade law.
const WetBoost = 2.0

// Target is the live gain surface of a render chain.
type Target interface {
	SetGains(dry, wet float64) error
}

// Mix owns the dry/wet amount and derives the two gain coefficients:
// dry = 1 - amount, wet = amount * WetBoost. While a chain is bound,
// Set pushes the new gains to it immediately; otherwise they take
// effect when the next chain binds.
type Mix struct {
	mu     sync.RWMutex
	amount float64
	target Target
}

// NewMix creates a mix controller with the given initial amount,
// clamped to [0, 1].
func NewMix(amount float64) *Mix {
	return &Mix{amount: clamp01(amount)}
}

// Set stores the amount, clamped to [0, 1], and applies the derived
// gains to the bound chain if one exists.
func (m *Mix) Set(amount float64) {
	m.mu.Lock()
	m.amount = clamp01(amount)
	target := m.target
	dry, wet := gains(m.amount)
	m.mu.Unlock()

	if target != nil {
		if err := target.SetGains(dry, wet); err != nil {
			log.Printf("Failed to apply mix gains: %v", err)
		}
	}
}

// Amount returns the current mix amount.
func (m *Mix) Amount() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.amount
}

// Gains returns the current (dry, wet) gain pair.
func (m *Mix) Gains() (dry, wet float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return gains(m.amount)
}

// Bind attaches a live chain and applies the current gains to it.
// Returns the chain's error so a caller can tear the chain down rather
// than leave it half configured.
func (m *Mix) Bind(target Target) error {
	m.mu.Lock()
	m.target = target
	dry, wet := gains(m.amount)
	m.mu.Unlock()

	return target.SetGains(dry, wet)
}

// Unbind detaches the live chain. Later Set calls only store the amount.
func (m *Mix) Unbind() {
	m.mu.Lock()
	m.target = nil
	m.mu.Unlock()
}

func gains(amount float64) (dry, wet float64) {
	return 1.0 - amount, amount * WetBoost
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
