// ABOUTME: Package documentation for the deck facade
// ABOUTME: Describes the high-level track playback API
/*
Package deck provides the high-level Woodshed playback API.

A Deck bundles a playback session, a track fetcher, and a decoder
behind one surface: load a track from a file, URL, or pre-decoded
buffer, then drive it with transport calls.

	d, err := deck.NewDeck(deck.Config{
		OnStateChange: func(st timeline.Status) {
			log.Printf("state: %v at %.2fs", st.State, st.Position)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	d.LoadFile("take-47.wav")
	d.Play()

Loads resolve in the background. Starting a new load supersedes any
load still in flight; the stale result is discarded when it arrives.
*/
package deck
