// ABOUTME: Playback timeline engine package
// ABOUTME: Anchor clock model plus the transport state machine
// Package timeline is the playback engine core.
//
// Position while playing is never stored: it is computed from an
// Anchor, the (device time, buffer position, rate) triple recorded at
// the last transition, via
//
//	pos(now) = anchor.BufferPos + (now - anchor.DeviceTime) * anchor.Rate
//
// The Session state machine owns the anchor and is the only component
// that mutates it. Every transition (play, pause, seek, rate change)
// recomputes the anchor from the position observed at that instant, so
// position stays continuous across arbitrary sequences of rate changes.
//
// Example:
//
//	sess, _ := timeline.NewSession(timeline.Config{Render: render.NewOto()})
//	sess.Load(buf)
//	sess.Play()
//	sess.SetRate(0.75)
//	pos := sess.Position()
package timeline
