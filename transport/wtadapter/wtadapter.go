// Package wtadapter binds the transport package's interfaces onto a
// real WebTransport-over-QUIC connection using quic-go and
// webtransport-go. It is the only package in this module that imports
// webtransport-go or quic-go's transport API directly (internal/wire and
// internal/protocol use only its quicvarint codec).
package wtadapter

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/webtransport-go"

	"github.com/streaming-university/moqtail-sub001/transport"
)

// Dial establishes a WebTransport session against url (an "https://"
// URL naming the relay's WebTransport endpoint) and returns it wrapped
// as a transport.Session. tlsConfig is used as-is; callers running
// against a relay with a self-signed certificate must set
// InsecureSkipVerify or a custom VerifyPeerCertificate themselves.
func Dial(ctx context.Context, url string, tlsConfig *tls.Config) (transport.Session, error) {
	dialer := webtransport.Dialer{
		TLSClientConfig: tlsConfig,
		QUICConfig: &quic.Config{
			EnableDatagrams: true,
		},
	}
	_, sess, err := dialer.Dial(ctx, url, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("wtadapter: dial %s: %w", url, err)
	}
	return &session{sess: sess}, nil
}

// session adapts *webtransport.Session to transport.Session.
type session struct {
	sess *webtransport.Session
}

func (s *session) OpenStream(ctx context.Context) (transport.Stream, error) {
	st, err := s.sess.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *session) AcceptStream(ctx context.Context) (transport.Stream, error) {
	st, err := s.sess.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *session) OpenUniStream(ctx context.Context) (transport.SendStream, error) {
	st, err := s.sess.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return sendStream{st}, nil
}

func (s *session) AcceptUniStream(ctx context.Context) (transport.ReceiveStream, error) {
	st, err := s.sess.AcceptUniStream(ctx)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *session) SendDatagram(b []byte) error {
	return s.sess.SendDatagram(b)
}

func (s *session) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	return s.sess.ReceiveDatagram(ctx)
}

func (s *session) CloseWithError(code uint64, reason string) error {
	return s.sess.CloseWithError(webtransport.SessionErrorCode(code), reason)
}

func (s *session) Context() context.Context {
	return s.sess.Context()
}

// sendStream adapts webtransport.SendStream (which already satisfies
// io.Writer, io.Closer and SetPriority via its embedded quic.SendStream)
// to transport.SendStream. The wrapper exists only so this package's
// exported Dial never leaks a webtransport-go type into callers.
type sendStream struct {
	webtransport.SendStream
}

func (s sendStream) SetPriority(priority int) {
	s.SendStream.SetPriority(priority)
}
