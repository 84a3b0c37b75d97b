// Package transport defines the minimal session/stream/datagram surface
// the moqtail client needs from an underlying WebTransport connection.
//
// Apart from the quic-go/quicvarint integer codec used by internal/wire
// and internal/protocol, the rest of this module never imports quic-go
// or webtransport-go directly; it programs against these interfaces, which keeps the
// control-stream and data-stream engines testable against an in-memory
// fake and keeps the concrete binding isolated in transport/wtadapter.
package transport
