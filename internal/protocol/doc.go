// Package protocol implements the MoQT control-message and data-framing
// model: the tagged union of control messages exchanged on the
// bidirectional control stream, and the header/object framing used on
// unidirectional data streams and datagrams.
//
// Every control message type is a plain struct with a matching
// ParseXxx(data []byte) (Xxx, error) and Serialize() []byte pair built on
// top of internal/wire's codec primitives; the data-stream header and
// object parsers take a *wire.Reader instead, so a caller can restore
// its checkpoint and retry on short input. Canonical field order matches the
// wire layout exactly; these functions carry no business logic beyond
// encoding and bounds checking.
package protocol
