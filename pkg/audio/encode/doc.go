// ABOUTME: Package documentation for encode
// ABOUTME: Describes the monitor stream encoders
/*
Package encode turns normalized samples into wire formats for the
monitor stream. Opus carries the feed when the native libopus binding
is available; raw 16-bit PCM is the fallback. The Framer regroups the
render tap's arbitrary block sizes into the fixed frames Opus needs.
*/
package encode
