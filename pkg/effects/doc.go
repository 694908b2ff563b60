// ABOUTME: Effects graph control package
// ABOUTME: Owns the dry/wet mix parameter and its gain mapping
// Package effects controls the dry/wet balance of the playback render
// chain.
//
// A single mix amount in [0, 1] maps to two gain coefficients: the dry
// path gets 1 - amount and the wet (reverb) path gets amount * 2. The
// crossfade is not energy preserving; see WetBoost.
//
// Example:
//
//	mix := effects.NewMix(0.25)
//	dry, wet := mix.Gains() // 0.75, 0.5
//	mix.Bind(chain)         // applies gains, tracks the live chain
//	mix.Set(0.5)            // updates the chain immediately
package effects
