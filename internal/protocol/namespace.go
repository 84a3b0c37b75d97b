package protocol

import "github.com/streaming-university/moqtail-sub001/internal/wire"

// PublishNamespace advertises that objects under Namespace are available.
// Wire message name is ANNOUNCE for backward compatibility with deployed
// relays; the type is named for the semantics spec.md assigns it.
type PublishNamespace struct {
	RequestID uint64
	Namespace [][]byte
	Params    []wire.KeyValuePair
}

func (p PublishNamespace) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutVarint(p.RequestID)
	w.PutTuple(p.Namespace)
	putParams(w, p.Params)
	return w.Bytes()
}

func ParsePublishNamespace(data []byte) (PublishNamespace, error) {
	r := wire.NewReader(data)
	var p PublishNamespace
	var err error
	if p.RequestID, err = r.GetVarint(); err != nil {
		return p, &wire.FieldError{Field: "request_id", Err: err}
	}
	if p.Namespace, err = r.GetTuple(); err != nil {
		return p, &wire.FieldError{Field: "namespace", Err: err}
	}
	if p.Params, err = getParams(r); err != nil {
		return p, err
	}
	return p, nil
}

// PublishNamespaceOk confirms a PublishNamespace.
type PublishNamespaceOk struct {
	RequestID uint64
}

func (p PublishNamespaceOk) Serialize() []byte {
	w := wire.NewWriter(8)
	w.PutVarint(p.RequestID)
	return w.Bytes()
}

func ParsePublishNamespaceOk(data []byte) (PublishNamespaceOk, error) {
	r := wire.NewReader(data)
	reqID, err := r.GetVarint()
	if err != nil {
		return PublishNamespaceOk{}, &wire.FieldError{Field: "request_id", Err: err}
	}
	return PublishNamespaceOk{RequestID: reqID}, nil
}

// PublishNamespaceError rejects a PublishNamespace.
type PublishNamespaceError struct {
	RequestID    uint64
	ErrorCode    RequestErrorCode
	ReasonPhrase string
}

func (p PublishNamespaceError) Serialize() []byte {
	w := wire.NewWriter(24)
	w.PutVarint(p.RequestID)
	w.PutVarint(uint64(p.ErrorCode))
	w.PutReasonPhrase(p.ReasonPhrase)
	return w.Bytes()
}

func ParsePublishNamespaceError(data []byte) (PublishNamespaceError, error) {
	r := wire.NewReader(data)
	var p PublishNamespaceError
	var err error
	if p.RequestID, err = r.GetVarint(); err != nil {
		return p, &wire.FieldError{Field: "request_id", Err: err}
	}
	errCode, err := r.GetVarint()
	if err != nil {
		return p, &wire.FieldError{Field: "error_code", Err: err}
	}
	p.ErrorCode = RequestErrorCode(errCode)
	if p.ReasonPhrase, err = r.GetReasonPhrase(); err != nil {
		return p, &wire.FieldError{Field: "reason_phrase", Err: err}
	}
	return p, nil
}

// PublishNamespaceDone withdraws a previously announced namespace.
type PublishNamespaceDone struct {
	Namespace [][]byte
}

func (p PublishNamespaceDone) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutTuple(p.Namespace)
	return w.Bytes()
}

func ParsePublishNamespaceDone(data []byte) (PublishNamespaceDone, error) {
	r := wire.NewReader(data)
	ns, err := r.GetTuple()
	if err != nil {
		return PublishNamespaceDone{}, &wire.FieldError{Field: "namespace", Err: err}
	}
	return PublishNamespaceDone{Namespace: ns}, nil
}

// PublishNamespaceCancel tells the peer an in-flight PublishNamespace
// request was abandoned before it was answered.
type PublishNamespaceCancel struct {
	Namespace    [][]byte
	ErrorCode    RequestErrorCode
	ReasonPhrase string
}

func (p PublishNamespaceCancel) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutTuple(p.Namespace)
	w.PutVarint(uint64(p.ErrorCode))
	w.PutReasonPhrase(p.ReasonPhrase)
	return w.Bytes()
}

func ParsePublishNamespaceCancel(data []byte) (PublishNamespaceCancel, error) {
	r := wire.NewReader(data)
	var p PublishNamespaceCancel
	var err error
	if p.Namespace, err = r.GetTuple(); err != nil {
		return p, &wire.FieldError{Field: "namespace", Err: err}
	}
	errCode, err := r.GetVarint()
	if err != nil {
		return p, &wire.FieldError{Field: "error_code", Err: err}
	}
	p.ErrorCode = RequestErrorCode(errCode)
	if p.ReasonPhrase, err = r.GetReasonPhrase(); err != nil {
		return p, &wire.FieldError{Field: "reason_phrase", Err: err}
	}
	return p, nil
}

// SubscribeAnnounces registers interest in PublishNamespace messages
// whose namespace carries NamespacePrefix as a prefix.
type SubscribeAnnounces struct {
	RequestID        uint64
	NamespacePrefix  [][]byte
	Params           []wire.KeyValuePair
}

func (s SubscribeAnnounces) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutVarint(s.RequestID)
	w.PutTuple(s.NamespacePrefix)
	putParams(w, s.Params)
	return w.Bytes()
}

func ParseSubscribeAnnounces(data []byte) (SubscribeAnnounces, error) {
	r := wire.NewReader(data)
	var s SubscribeAnnounces
	var err error
	if s.RequestID, err = r.GetVarint(); err != nil {
		return s, &wire.FieldError{Field: "request_id", Err: err}
	}
	if s.NamespacePrefix, err = r.GetTuple(); err != nil {
		return s, &wire.FieldError{Field: "namespace_prefix", Err: err}
	}
	if s.Params, err = getParams(r); err != nil {
		return s, err
	}
	return s, nil
}

type SubscribeAnnouncesOk struct {
	RequestID uint64
}

func (s SubscribeAnnouncesOk) Serialize() []byte {
	w := wire.NewWriter(8)
	w.PutVarint(s.RequestID)
	return w.Bytes()
}

func ParseSubscribeAnnouncesOk(data []byte) (SubscribeAnnouncesOk, error) {
	r := wire.NewReader(data)
	reqID, err := r.GetVarint()
	if err != nil {
		return SubscribeAnnouncesOk{}, &wire.FieldError{Field: "request_id", Err: err}
	}
	return SubscribeAnnouncesOk{RequestID: reqID}, nil
}

type SubscribeAnnouncesError struct {
	RequestID    uint64
	ErrorCode    RequestErrorCode
	ReasonPhrase string
}

func (s SubscribeAnnouncesError) Serialize() []byte {
	w := wire.NewWriter(24)
	w.PutVarint(s.RequestID)
	w.PutVarint(uint64(s.ErrorCode))
	w.PutReasonPhrase(s.ReasonPhrase)
	return w.Bytes()
}

func ParseSubscribeAnnouncesError(data []byte) (SubscribeAnnouncesError, error) {
	r := wire.NewReader(data)
	var s SubscribeAnnouncesError
	var err error
	if s.RequestID, err = r.GetVarint(); err != nil {
		return s, &wire.FieldError{Field: "request_id", Err: err}
	}
	errCode, err := r.GetVarint()
	if err != nil {
		return s, &wire.FieldError{Field: "error_code", Err: err}
	}
	s.ErrorCode = RequestErrorCode(errCode)
	if s.ReasonPhrase, err = r.GetReasonPhrase(); err != nil {
		return s, &wire.FieldError{Field: "reason_phrase", Err: err}
	}
	return s, nil
}

// UnsubscribeAnnounces withdraws a SubscribeAnnounces registration.
type UnsubscribeAnnounces struct {
	NamespacePrefix [][]byte
}

func (u UnsubscribeAnnounces) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutTuple(u.NamespacePrefix)
	return w.Bytes()
}

func ParseUnsubscribeAnnounces(data []byte) (UnsubscribeAnnounces, error) {
	r := wire.NewReader(data)
	ns, err := r.GetTuple()
	if err != nil {
		return UnsubscribeAnnounces{}, &wire.FieldError{Field: "namespace_prefix", Err: err}
	}
	return UnsubscribeAnnounces{NamespacePrefix: ns}, nil
}
