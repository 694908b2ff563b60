// ABOUTME: Package documentation for decode
// ABOUTME: Describes file decoding, sniffing, and stream decoders
/*
Package decode turns encoded audio into normalized sample buffers.

Decode sniffs the codec from leading bytes (RIFF/WAVE, fLaC, ID3, MPEG
frame sync) with the file extension as a fallback, then dispatches to
the matching decoder. WAV, MP3, and FLAC files decode whole; raw PCM
needs an explicit Format since it carries no header.

Stream decoders handle the monitor feed, where audio arrives one
packet at a time as Opus or raw PCM.
*/
package decode
