// ABOUTME: Package documentation for monitor
// ABOUTME: Describes the WebSocket monitor protocol
/*
Package monitor lets remote clients watch and control a deck over
WebSocket. The deck runs a Server; woodshed-listen runs a Client.

JSON messages carry the handshake, status updates, and transport
commands. Audio travels as binary frames with a one-byte type and a
big-endian microsecond timestamp, encoded as Opus (PCM fallback).
*/
package monitor
