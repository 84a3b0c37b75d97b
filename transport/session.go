package transport

import (
	"context"
	"io"
)

// Session is a single WebTransport session: one control bidirectional
// stream is opened over it by the caller, any number of unidirectional
// data streams are opened or accepted over its lifetime, and datagrams
// may be sent and received independently of any stream.
type Session interface {
	// OpenStream opens a new outgoing bidirectional stream. The client
	// uses this exactly once per session, for the control stream.
	OpenStream(ctx context.Context) (Stream, error)

	// AcceptStream blocks until the peer opens a bidirectional stream,
	// or ctx is done. moqtail never expects the relay to open one, but
	// the call is exposed for completeness and for protocol-violation
	// detection.
	AcceptStream(ctx context.Context) (Stream, error)

	// OpenUniStream opens a new outgoing unidirectional stream, used
	// for a subgroup or fetch data stream on the publish side.
	OpenUniStream(ctx context.Context) (SendStream, error)

	// AcceptUniStream blocks until the peer opens a unidirectional
	// stream, or ctx is done. Used to receive subgroup and fetch data
	// streams on the subscribe side.
	AcceptUniStream(ctx context.Context) (ReceiveStream, error)

	// SendDatagram sends b as one WebTransport datagram.
	SendDatagram(b []byte) error

	// ReceiveDatagram blocks until a datagram arrives, or ctx is done.
	ReceiveDatagram(ctx context.Context) ([]byte, error)

	// CloseWithError tears the session down, delivering code and
	// reason to the peer on a best-effort basis.
	CloseWithError(code uint64, reason string) error

	// Context is canceled when the session closes, for any reason.
	Context() context.Context
}

// Stream is a bidirectional stream: the control stream in this
// module's usage.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// SendStream is the write side of a unidirectional stream opened by
// this endpoint, used to send a subgroup or fetch data stream.
type SendStream interface {
	io.Writer
	io.Closer

	// SetPriority sets the stream's relative send priority; higher
	// values are sent first when multiple streams are congestion
	// limited. moqtail derives this from the track's publisher priority
	// and the subscriber's requested priority.
	SetPriority(priority int)
}

// ReceiveStream is the read side of a unidirectional stream opened by
// the peer, used to receive a subgroup or fetch data stream.
type ReceiveStream interface {
	io.Reader
}
