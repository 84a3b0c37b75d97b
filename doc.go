// Package moqtail is a client-side library for Media-over-QUIC
// Transport (MoQT), a publish/subscribe media-streaming protocol
// carried over WebTransport. It wires together internal/wire (the
// varint/byte codec), internal/protocol (the control-message and
// data-plane framing), internal/registry (track alias, request id, and
// table bookkeeping) and the transport package (an abstract
// WebTransport collaborator, concretely bound by transport/wtadapter)
// into a Session type exposing Subscribe, Fetch, PublishNamespace and
// related operations.
package moqtail
