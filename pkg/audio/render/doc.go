// ABOUTME: Render subsystem package for live playback chains
// ABOUTME: Provides the System contract, an oto device backend, and a silent backend
// Package render is the playback engine's rendering collaborator.
//
// A System builds Chains: live signal paths that read the loaded buffer
// at a variable rate through linear interpolation, split it into a dry
// path and a reverb wet path, apply the two gains, and write 16-bit PCM
// to an output. It also provides the device clock the engine anchors
// position against.
//
// Two implementations ship:
//   - Oto: the system audio device via ebitengine/oto
//   - Null: no device, manual clock; used by tests and headless runs
package render
