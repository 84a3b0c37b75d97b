// Package wire implements the low-level byte codec shared by every MoQT
// wire structure: QUIC-style variable-length integers, length-prefixed
// byte blobs, tuples, bounded UTF-8 reason phrases, and typed key-value
// extension pairs.
//
// Parsing is built around [Reader], a cursor over an in-memory byte slice
// that supports a checkpoint/restore discipline: a caller attempts a parse,
// and on [ErrNotEnoughBytes] rewinds to the checkpoint and waits for more
// bytes to arrive before trying again. This lets higher layers feed
// arbitrarily fragmented reads (one control message at a time, or one
// object at a time off a unidirectional stream) through the same decoders
// used for a single fully-buffered payload.
package wire
