// ABOUTME: Self-terminating progress loop
// ABOUTME: Polls the session position each tick while playing
package timeline

import "time"

// progressLoop pushes the position to OnProgress each tick while the
// session keeps Playing under the same loop generation. It terminates
// on its own once either condition fails; each Play starts a fresh
// generation, so restarting is idempotent. Reading Position here is
// what fires the end-of-track auto-stop during normal playback: the
// final tick delivers the duration, the next one observes Stopped and
// exits.
func (s *Session) progressLoop(gen uint64) {
	ticker := time.NewTicker(s.config.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			alive := s.state == Playing && s.loopGen == gen
			s.mu.RUnlock()
			if !alive {
				return
			}

			p := s.Position()
			if s.config.OnProgress != nil {
				s.config.OnProgress(p)
			}
		}
	}
}
