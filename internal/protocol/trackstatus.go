package protocol

import "github.com/streaming-university/moqtail-sub001/internal/wire"

// TrackStatusRequest asks the peer for the current state of a track
// without subscribing to it.
type TrackStatusRequest struct {
	RequestID uint64
	Namespace [][]byte
	TrackName []byte
	Params    []wire.KeyValuePair
}

func (t TrackStatusRequest) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutVarint(t.RequestID)
	w.PutTuple(t.Namespace)
	w.PutBytes(t.TrackName)
	putParams(w, t.Params)
	return w.Bytes()
}

func ParseTrackStatusRequest(data []byte) (TrackStatusRequest, error) {
	r := wire.NewReader(data)
	var t TrackStatusRequest
	var err error
	if t.RequestID, err = r.GetVarint(); err != nil {
		return t, &wire.FieldError{Field: "request_id", Err: err}
	}
	if t.Namespace, err = r.GetTuple(); err != nil {
		return t, &wire.FieldError{Field: "namespace", Err: err}
	}
	if t.TrackName, err = r.GetBytes(); err != nil {
		return t, &wire.FieldError{Field: "track_name", Err: err}
	}
	if t.Params, err = getParams(r); err != nil {
		return t, err
	}
	return t, nil
}

// TrackStatus answers a TrackStatusRequest.
type TrackStatus struct {
	RequestID    uint64
	StatusCode   uint64
	LargestGroup uint64
	LargestObj   uint64
	Params       []wire.KeyValuePair
}

func (t TrackStatus) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutVarint(t.RequestID)
	w.PutVarint(t.StatusCode)
	w.PutVarint(t.LargestGroup)
	w.PutVarint(t.LargestObj)
	putParams(w, t.Params)
	return w.Bytes()
}

func ParseTrackStatus(data []byte) (TrackStatus, error) {
	r := wire.NewReader(data)
	var t TrackStatus
	var err error
	if t.RequestID, err = r.GetVarint(); err != nil {
		return t, &wire.FieldError{Field: "request_id", Err: err}
	}
	if t.StatusCode, err = r.GetVarint(); err != nil {
		return t, &wire.FieldError{Field: "status_code", Err: err}
	}
	if t.LargestGroup, err = r.GetVarint(); err != nil {
		return t, &wire.FieldError{Field: "largest_group", Err: err}
	}
	if t.LargestObj, err = r.GetVarint(); err != nil {
		return t, &wire.FieldError{Field: "largest_object", Err: err}
	}
	if t.Params, err = getParams(r); err != nil {
		return t, err
	}
	return t, nil
}

// TrackStatusError rejects a TrackStatusRequest.
type TrackStatusError struct {
	RequestID    uint64
	ErrorCode    RequestErrorCode
	ReasonPhrase string
}

func (t TrackStatusError) Serialize() []byte {
	w := wire.NewWriter(24)
	w.PutVarint(t.RequestID)
	w.PutVarint(uint64(t.ErrorCode))
	w.PutReasonPhrase(t.ReasonPhrase)
	return w.Bytes()
}

func ParseTrackStatusError(data []byte) (TrackStatusError, error) {
	r := wire.NewReader(data)
	var t TrackStatusError
	var err error
	if t.RequestID, err = r.GetVarint(); err != nil {
		return t, &wire.FieldError{Field: "request_id", Err: err}
	}
	errCode, err := r.GetVarint()
	if err != nil {
		return t, &wire.FieldError{Field: "error_code", Err: err}
	}
	t.ErrorCode = RequestErrorCode(errCode)
	if t.ReasonPhrase, err = r.GetReasonPhrase(); err != nil {
		return t, &wire.FieldError{Field: "reason_phrase", Err: err}
	}
	return t, nil
}

// GoAway signals a graceful session shutdown, optionally redirecting
// the client to a new session URI.
type GoAway struct {
	NewSessionURI string
}

func (g GoAway) Serialize() []byte {
	w := wire.NewWriter(16)
	w.PutBytes([]byte(g.NewSessionURI))
	return w.Bytes()
}

func ParseGoAway(data []byte) (GoAway, error) {
	r := wire.NewReader(data)
	b, err := r.GetBytes()
	if err != nil {
		return GoAway{}, &wire.FieldError{Field: "new_session_uri", Err: err}
	}
	return GoAway{NewSessionURI: string(b)}, nil
}

// MaxRequestIDMsg updates the peer's request-id quota.
type MaxRequestIDMsg struct {
	RequestID uint64
}

func (m MaxRequestIDMsg) Serialize() []byte {
	w := wire.NewWriter(8)
	w.PutVarint(m.RequestID)
	return w.Bytes()
}

func ParseMaxRequestID(data []byte) (MaxRequestIDMsg, error) {
	r := wire.NewReader(data)
	reqID, err := r.GetVarint()
	if err != nil {
		return MaxRequestIDMsg{}, &wire.FieldError{Field: "request_id", Err: err}
	}
	return MaxRequestIDMsg{RequestID: reqID}, nil
}

// RequestsBlocked tells the peer the sender wanted to originate a
// request but ran out of request-id quota.
type RequestsBlocked struct {
	MaxRequestID uint64
}

func (r RequestsBlocked) Serialize() []byte {
	w := wire.NewWriter(8)
	w.PutVarint(r.MaxRequestID)
	return w.Bytes()
}

func ParseRequestsBlocked(data []byte) (RequestsBlocked, error) {
	rd := wire.NewReader(data)
	maxID, err := rd.GetVarint()
	if err != nil {
		return RequestsBlocked{}, &wire.FieldError{Field: "max_request_id", Err: err}
	}
	return RequestsBlocked{MaxRequestID: maxID}, nil
}
