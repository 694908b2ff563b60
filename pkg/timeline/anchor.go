// ABOUTME: Anchor-based clock model for playback position
// ABOUTME: Converts between device clock time and buffer position
package timeline

import "time"

// Anchor pins buffer position to device time. One is recorded at the
// moment playback (re)starts, a seek lands, or the rate changes; it is
// the single source of truth for position while playing. No separate
// position counter is kept during playback, which rules out dual-writer
// drift.
type Anchor struct {
	DeviceTime time.Time // device clock reading when the anchor was set
	BufferPos  float64   // seconds into the buffer at that instant
	Rate       float64   // playback rate in effect from that instant
}

// Position returns the buffer position the anchor implies at now:
// BufferPos plus elapsed device time scaled by the anchored rate.
// Pure computation; callers clamp against duration.
func Position(a Anchor, now time.Time) float64 {
	return a.BufferPos + now.Sub(a.DeviceTime).Seconds()*a.Rate
}
