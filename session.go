package moqtail

import (
	"bufio"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
	"github.com/streaming-university/moqtail-sub001/internal/registry"
	"github.com/streaming-university/moqtail-sub001/internal/wire"
	"github.com/streaming-university/moqtail-sub001/transport"
)

// DialOptions configures the handshake Dial performs before handing
// back a ready Session.
type DialOptions struct {
	// Path is carried as the Path setup parameter when non-empty.
	Path string
	// InitialRequestID seeds this session's RequestIDGenerator. Some
	// deployed relays expect a session's first self-originated request
	// id to be 1 rather than 0, so this is a knob rather than a
	// hardcoded zero.
	InitialRequestID uint64
	// MaxRequestID is advertised to the peer as the MaxRequestId setup
	// parameter. Zero omits the parameter.
	MaxRequestID uint64
	// SupportedVersions lists the protocol versions offered in
	// ClientSetup, in preference order. Defaults to
	// []uint64{protocol.Version}.
	SupportedVersions []uint64
	// Log receives structured session diagnostics. Defaults to
	// slog.Default().
	Log *slog.Logger
}

// Session is one MoQT client session: the control stream, the
// registry tables tracking in-flight requests and publications, and
// the caller-registered tracks this session can serve to the peer.
type Session struct {
	log        *slog.Logger
	transport  transport.Session
	control    transport.Stream
	controlR   *bufio.Reader
	controlMu  sync.Mutex

	requests      *registry.Requests
	subscriptions *registry.Subscriptions
	publications  *registry.Publications
	aliases       *registry.AliasMap
	reqIDGen      *registry.RequestIDGenerator

	tracksMu sync.RWMutex
	tracks   map[string]*Track

	announcedMu sync.Mutex
	announced   map[string]bool

	cbMu                 sync.RWMutex
	onSessionTerminated  func(error)
	onNamespacePublished func(namespace []string, params []KeyValuePair)
	onNamespaceDone      func(namespace []string)
	onGoAway             func(newSessionURI string)

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closed    atomic.Bool

	dispatch map[uint64]func(*Session, []byte) error
}

// SetOnSessionTerminated registers the callback fired exactly once,
// when the session disconnects for any reason.
func (s *Session) SetOnSessionTerminated(fn func(error)) {
	s.cbMu.Lock()
	s.onSessionTerminated = fn
	s.cbMu.Unlock()
}

// SetOnNamespacePublished registers the callback fired when the peer
// advertises a namespace via PUBLISH_NAMESPACE.
func (s *Session) SetOnNamespacePublished(fn func(namespace []string, params []KeyValuePair)) {
	s.cbMu.Lock()
	s.onNamespacePublished = fn
	s.cbMu.Unlock()
}

// SetOnNamespaceDone registers the callback fired when the peer
// withdraws a previously advertised namespace.
func (s *Session) SetOnNamespaceDone(fn func(namespace []string)) {
	s.cbMu.Lock()
	s.onNamespaceDone = fn
	s.cbMu.Unlock()
}

// SetOnGoAway registers the callback fired when the peer requests a
// graceful shutdown, optionally redirecting to a new session URI.
func (s *Session) SetOnGoAway(fn func(newSessionURI string)) {
	s.cbMu.Lock()
	s.onGoAway = fn
	s.cbMu.Unlock()
}

// Dial performs the MoQT handshake over sess (opening the control
// stream, exchanging ClientSetup/ServerSetup) and, on success, launches
// the control-reader and uni-stream-acceptor loops and returns a ready
// Session.
func Dial(ctx context.Context, sess transport.Session, opts DialOptions) (*Session, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "session")

	control, err := sess.OpenStream(ctx)
	if err != nil {
		return nil, internalErrorf("open control stream", err)
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		log:           log,
		transport:     sess,
		control:       control,
		controlR:      bufio.NewReader(control),
		requests:      registry.NewRequests(log),
		subscriptions: registry.NewSubscriptions(log),
		publications:  registry.NewPublications(log),
		aliases:       registry.NewAliasMap(log),
		reqIDGen:      registry.NewRequestIDGenerator(opts.InitialRequestID),
		tracks:        make(map[string]*Track),
		announced:     make(map[string]bool),
		ctx:           sctx,
		cancel:        cancel,
	}
	s.dispatch = newDispatchTable()

	versions := opts.SupportedVersions
	if len(versions) == 0 {
		versions = []uint64{protocol.Version}
	}

	var params []KeyValuePair
	if opts.Path != "" {
		kv, _ := wire.NewBytesKV(protocol.ParamPath, []byte(opts.Path))
		params = append(params, kv)
	}
	if opts.MaxRequestID != 0 {
		kv, _ := wire.NewVarintKV(protocol.ParamMaxRequestID, opts.MaxRequestID)
		params = append(params, kv)
	}

	cs := protocol.ClientSetup{Versions: versions, Params: params}
	if err := s.writeControl(protocol.MsgClientSetup, cs.Serialize()); err != nil {
		cancel()
		return nil, internalErrorf("send client setup", err)
	}

	msgType, payload, err := protocol.ReadControlMsg(s.controlR)
	if err != nil {
		cancel()
		return nil, internalErrorf("read server setup", err)
	}
	if msgType != protocol.MsgServerSetup {
		cancel()
		return nil, ErrProtocolViolation
	}
	if _, err := protocol.ParseServerSetup(payload); err != nil {
		cancel()
		return nil, internalErrorf("parse server setup", err)
	}

	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error { return s.readControlLoop(gctx) })
	g.Go(func() error { return s.acceptUniLoop(gctx) })
	go func() {
		s.disconnect(g.Wait())
	}()

	log.Info("session established")
	return s, nil
}

// writeControl serializes one control message under the send mutex,
// the lock bracketing only the single atomic Write call, matching the
// teacher's controlMu.Lock/WriteControlMsg/controlMu.Unlock pattern.
func (s *Session) writeControl(msgType uint64, payload []byte) error {
	s.controlMu.Lock()
	err := protocol.WriteControlMsg(s.control, msgType, payload)
	s.controlMu.Unlock()
	return err
}

func (s *Session) readControlLoop(ctx context.Context) error {
	for {
		msgType, payload, err := protocol.ReadControlMsg(s.controlR)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return internalErrorf("read control message", err)
		}
		handler, ok := s.dispatch[msgType]
		if !ok {
			s.log.Warn("unhandled control message", "type", msgType)
			return ErrProtocolViolation
		}
		if err := handler(s, payload); err != nil {
			return err
		}
	}
}

func (s *Session) acceptUniLoop(ctx context.Context) error {
	for {
		stream, err := s.transport.AcceptUniStream(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return internalErrorf("accept uni stream", err)
		}
		go s.handleUniStream(stream)
	}
}

// disconnect is idempotent: it tears the transport session down,
// resolves every outstanding request and active publication, and fires
// onSessionTerminated exactly once.
func (s *Session) disconnect(cause error) {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		_ = s.transport.CloseWithError(0, "session closed")
		s.closeSinks()
		s.requests.AbortAll(internalErrorf("disconnect", ErrSessionClosed))
		s.publications.CancelAll()
		if cause != nil {
			s.log.Info("session disconnected", "cause", cause)
		} else {
			s.log.Info("session disconnected")
		}

		s.cbMu.RLock()
		cb := s.onSessionTerminated
		s.cbMu.RUnlock()
		if cb != nil {
			cb(cause)
		}
	})
}

// closeSinks unblocks every caller parked in Subscription.Recv or
// FetchStream.Recv. AbortAll only resolves requests still awaiting
// their initial OK/ERROR: an already-active subscription or fetch has
// long since completed that future, so its Sink needs closing here
// instead, or Recv would hang past session teardown.
func (s *Session) closeSinks() {
	for _, req := range s.requests.Snapshot() {
		switch r := req.(type) {
		case *registry.SubscribeRequest:
			if sink, ok := r.Sink.(*objectStream); ok {
				sink.close()
			}
		case *registry.FetchRequest:
			if sink, ok := r.Sink.(*objectStream); ok {
				sink.close()
			}
		}
	}
}

func (s *Session) isClosed() bool { return s.closed.Load() }

func (s *Session) track(name FullTrackName) (*Track, bool) {
	s.tracksMu.RLock()
	defer s.tracksMu.RUnlock()
	t, ok := s.tracks[name.Key()]
	return t, ok
}
