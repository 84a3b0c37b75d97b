package protocol

import "github.com/streaming-university/moqtail-sub001/internal/wire"

// FetchKind selects which variant of FetchTypeAndProps a Fetch carries.
type FetchKind uint64

const (
	FetchStandAlone FetchKind = 0x01
	FetchRelative   FetchKind = 0x02
	FetchAbsolute   FetchKind = 0x03
)

// FetchTypeAndProps is the discriminated union describing what range a
// FETCH requests. Exactly one of the StandAlone/Relative/Absolute field
// groups is meaningful, selected by Kind.
type FetchTypeAndProps struct {
	Kind FetchKind

	// StandAlone
	Namespace     [][]byte
	TrackName     []byte
	StartGroup    uint64
	StartObj      uint64
	EndGroup      uint64
	EndObj        uint64

	// Relative / Absolute
	JoiningRequestID uint64
	JoiningStart     uint64
}

func (t FetchTypeAndProps) put(w *wire.Writer) {
	w.PutVarint(uint64(t.Kind))
	switch t.Kind {
	case FetchStandAlone:
		w.PutTuple(t.Namespace)
		w.PutBytes(t.TrackName)
		w.PutVarint(t.StartGroup)
		w.PutVarint(t.StartObj)
		w.PutVarint(t.EndGroup)
		w.PutVarint(t.EndObj)
	case FetchRelative, FetchAbsolute:
		w.PutVarint(t.JoiningRequestID)
		w.PutVarint(t.JoiningStart)
	}
}

func getFetchTypeAndProps(r *wire.Reader) (FetchTypeAndProps, error) {
	var t FetchTypeAndProps
	kind, err := r.GetVarint()
	if err != nil {
		return t, &wire.FieldError{Field: "fetch_kind", Err: err}
	}
	t.Kind = FetchKind(kind)
	switch t.Kind {
	case FetchStandAlone:
		if t.Namespace, err = r.GetTuple(); err != nil {
			return t, &wire.FieldError{Field: "namespace", Err: err}
		}
		if t.TrackName, err = r.GetBytes(); err != nil {
			return t, &wire.FieldError{Field: "track_name", Err: err}
		}
		if t.StartGroup, err = r.GetVarint(); err != nil {
			return t, &wire.FieldError{Field: "start_group", Err: err}
		}
		if t.StartObj, err = r.GetVarint(); err != nil {
			return t, &wire.FieldError{Field: "start_object", Err: err}
		}
		if t.EndGroup, err = r.GetVarint(); err != nil {
			return t, &wire.FieldError{Field: "end_group", Err: err}
		}
		if t.EndObj, err = r.GetVarint(); err != nil {
			return t, &wire.FieldError{Field: "end_object", Err: err}
		}
	case FetchRelative, FetchAbsolute:
		if t.JoiningRequestID, err = r.GetVarint(); err != nil {
			return t, &wire.FieldError{Field: "joining_request_id", Err: err}
		}
		if t.JoiningStart, err = r.GetVarint(); err != nil {
			return t, &wire.FieldError{Field: "joining_start", Err: err}
		}
	default:
		return t, wire.ErrInvalidType
	}
	return t, nil
}

// Fetch requests a finite range of past objects.
type Fetch struct {
	RequestID  uint64
	Priority   uint8
	GroupOrder GroupOrder
	TypeProps  FetchTypeAndProps
	Params     []wire.KeyValuePair
}

// Serialize encodes a FETCH payload.
func (f Fetch) Serialize() []byte {
	w := wire.NewWriter(48)
	w.PutVarint(f.RequestID)
	w.PutUint8(f.Priority)
	w.PutUint8(uint8(f.GroupOrder))
	f.TypeProps.put(w)
	putParams(w, f.Params)
	return w.Bytes()
}

// ParseFetch decodes a FETCH payload.
func ParseFetch(data []byte) (Fetch, error) {
	r := wire.NewReader(data)
	var f Fetch
	var err error
	if f.RequestID, err = r.GetVarint(); err != nil {
		return f, &wire.FieldError{Field: "request_id", Err: err}
	}
	if f.Priority, err = r.GetUint8(); err != nil {
		return f, &wire.FieldError{Field: "priority", Err: err}
	}
	groupOrder, err := r.GetUint8()
	if err != nil {
		return f, &wire.FieldError{Field: "group_order", Err: err}
	}
	f.GroupOrder = GroupOrder(groupOrder)
	if f.TypeProps, err = getFetchTypeAndProps(r); err != nil {
		return f, err
	}
	if f.Params, err = getParams(r); err != nil {
		return f, err
	}
	return f, nil
}

// FetchOk confirms a fetch and describes how the server will deliver it.
type FetchOk struct {
	RequestID    uint64
	GroupOrder   GroupOrder
	InitialGroup uint64
	InitialObj   uint64
	Params       []wire.KeyValuePair
}

// Serialize encodes a FETCH_OK payload.
func (fok FetchOk) Serialize() []byte {
	w := wire.NewWriter(24)
	w.PutVarint(fok.RequestID)
	w.PutUint8(uint8(fok.GroupOrder))
	w.PutVarint(fok.InitialGroup)
	w.PutVarint(fok.InitialObj)
	putParams(w, fok.Params)
	return w.Bytes()
}

// ParseFetchOk decodes a FETCH_OK payload.
func ParseFetchOk(data []byte) (FetchOk, error) {
	r := wire.NewReader(data)
	var fok FetchOk
	var err error
	if fok.RequestID, err = r.GetVarint(); err != nil {
		return fok, &wire.FieldError{Field: "request_id", Err: err}
	}
	groupOrder, err := r.GetUint8()
	if err != nil {
		return fok, &wire.FieldError{Field: "group_order", Err: err}
	}
	fok.GroupOrder = GroupOrder(groupOrder)
	if fok.InitialGroup, err = r.GetVarint(); err != nil {
		return fok, &wire.FieldError{Field: "initial_group", Err: err}
	}
	if fok.InitialObj, err = r.GetVarint(); err != nil {
		return fok, &wire.FieldError{Field: "initial_object", Err: err}
	}
	if fok.Params, err = getParams(r); err != nil {
		return fok, err
	}
	return fok, nil
}

// FetchError rejects a fetch.
type FetchError struct {
	RequestID    uint64
	ErrorCode    RequestErrorCode
	ReasonPhrase string
}

// Serialize encodes a FETCH_ERROR payload.
func (fe FetchError) Serialize() []byte {
	w := wire.NewWriter(24)
	w.PutVarint(fe.RequestID)
	w.PutVarint(uint64(fe.ErrorCode))
	w.PutReasonPhrase(fe.ReasonPhrase)
	return w.Bytes()
}

// ParseFetchError decodes a FETCH_ERROR payload.
func ParseFetchError(data []byte) (FetchError, error) {
	r := wire.NewReader(data)
	var fe FetchError
	var err error
	if fe.RequestID, err = r.GetVarint(); err != nil {
		return fe, &wire.FieldError{Field: "request_id", Err: err}
	}
	errCode, err := r.GetVarint()
	if err != nil {
		return fe, &wire.FieldError{Field: "error_code", Err: err}
	}
	fe.ErrorCode = RequestErrorCode(errCode)
	if fe.ReasonPhrase, err = r.GetReasonPhrase(); err != nil {
		return fe, &wire.FieldError{Field: "reason_phrase", Err: err}
	}
	return fe, nil
}

// FetchCancel cancels an in-flight fetch.
type FetchCancel struct {
	RequestID uint64
}

// Serialize encodes a FETCH_CANCEL payload.
func (fc FetchCancel) Serialize() []byte {
	w := wire.NewWriter(8)
	w.PutVarint(fc.RequestID)
	return w.Bytes()
}

// ParseFetchCancel decodes a FETCH_CANCEL payload.
func ParseFetchCancel(data []byte) (FetchCancel, error) {
	r := wire.NewReader(data)
	reqID, err := r.GetVarint()
	if err != nil {
		return FetchCancel{}, &wire.FieldError{Field: "request_id", Err: err}
	}
	return FetchCancel{RequestID: reqID}, nil
}
