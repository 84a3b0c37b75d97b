package protocol

import "github.com/streaming-university/moqtail-sub001/internal/wire"

// Subscribe requests delivery of a track, optionally bounded to a
// range of locations depending on FilterType.
type Subscribe struct {
	RequestID  uint64
	TrackAlias uint64
	Namespace  [][]byte
	TrackName  []byte
	Priority   uint8
	GroupOrder GroupOrder
	Forward    bool
	FilterType FilterType
	StartGroup uint64 // AbsoluteStart / AbsoluteRange
	StartObj   uint64 // AbsoluteStart / AbsoluteRange
	EndGroup   uint64 // AbsoluteRange
	Params     []wire.KeyValuePair
}

func putBool(w *wire.Writer, b bool) {
	if b {
		w.PutUint8(1)
	} else {
		w.PutUint8(0)
	}
}

func getBool(r *wire.Reader) (bool, error) {
	v, err := r.GetUint8()
	return v != 0, err
}

// Serialize encodes a SUBSCRIBE payload.
func (s Subscribe) Serialize() []byte {
	w := wire.NewWriter(64)
	w.PutVarint(s.RequestID)
	w.PutVarint(s.TrackAlias)
	w.PutTuple(s.Namespace)
	w.PutBytes(s.TrackName)
	w.PutUint8(s.Priority)
	w.PutUint8(uint8(s.GroupOrder))
	putBool(w, s.Forward)
	w.PutVarint(uint64(s.FilterType))
	switch s.FilterType {
	case FilterAbsoluteStart:
		w.PutVarint(s.StartGroup)
		w.PutVarint(s.StartObj)
	case FilterAbsoluteRange:
		w.PutVarint(s.StartGroup)
		w.PutVarint(s.StartObj)
		w.PutVarint(s.EndGroup)
	}
	putParams(w, s.Params)
	return w.Bytes()
}

// ParseSubscribe decodes a SUBSCRIBE payload.
func ParseSubscribe(data []byte) (Subscribe, error) {
	r := wire.NewReader(data)
	var s Subscribe
	var err error

	if s.RequestID, err = r.GetVarint(); err != nil {
		return s, &wire.FieldError{Field: "request_id", Err: err}
	}
	if s.TrackAlias, err = r.GetVarint(); err != nil {
		return s, &wire.FieldError{Field: "track_alias", Err: err}
	}
	if s.Namespace, err = r.GetTuple(); err != nil {
		return s, &wire.FieldError{Field: "namespace", Err: err}
	}
	if s.TrackName, err = r.GetBytes(); err != nil {
		return s, &wire.FieldError{Field: "track_name", Err: err}
	}
	priority, err := r.GetUint8()
	if err != nil {
		return s, &wire.FieldError{Field: "priority", Err: err}
	}
	s.Priority = priority
	groupOrder, err := r.GetUint8()
	if err != nil {
		return s, &wire.FieldError{Field: "group_order", Err: err}
	}
	s.GroupOrder = GroupOrder(groupOrder)
	if s.Forward, err = getBool(r); err != nil {
		return s, &wire.FieldError{Field: "forward", Err: err}
	}
	filterType, err := r.GetVarint()
	if err != nil {
		return s, &wire.FieldError{Field: "filter_type", Err: err}
	}
	s.FilterType = FilterType(filterType)

	switch s.FilterType {
	case FilterAbsoluteStart:
		if s.StartGroup, err = r.GetVarint(); err != nil {
			return s, &wire.FieldError{Field: "start_group", Err: err}
		}
		if s.StartObj, err = r.GetVarint(); err != nil {
			return s, &wire.FieldError{Field: "start_object", Err: err}
		}
	case FilterAbsoluteRange:
		if s.StartGroup, err = r.GetVarint(); err != nil {
			return s, &wire.FieldError{Field: "start_group", Err: err}
		}
		if s.StartObj, err = r.GetVarint(); err != nil {
			return s, &wire.FieldError{Field: "start_object", Err: err}
		}
		if s.EndGroup, err = r.GetVarint(); err != nil {
			return s, &wire.FieldError{Field: "end_group", Err: err}
		}
	}

	if s.Params, err = getParams(r); err != nil {
		return s, err
	}
	return s, nil
}

// SubscribeOk confirms a subscription.
type SubscribeOk struct {
	RequestID     uint64
	Expires       uint64
	GroupOrder    GroupOrder
	ContentExists bool
	LargestGroup  uint64 // only when ContentExists
	LargestObj    uint64 // only when ContentExists
	Params        []wire.KeyValuePair
}

// Serialize encodes a SUBSCRIBE_OK payload.
func (sok SubscribeOk) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutVarint(sok.RequestID)
	w.PutVarint(sok.Expires)
	w.PutUint8(uint8(sok.GroupOrder))
	putBool(w, sok.ContentExists)
	if sok.ContentExists {
		w.PutVarint(sok.LargestGroup)
		w.PutVarint(sok.LargestObj)
	}
	putParams(w, sok.Params)
	return w.Bytes()
}

// ParseSubscribeOk decodes a SUBSCRIBE_OK payload.
func ParseSubscribeOk(data []byte) (SubscribeOk, error) {
	r := wire.NewReader(data)
	var sok SubscribeOk
	var err error
	if sok.RequestID, err = r.GetVarint(); err != nil {
		return sok, &wire.FieldError{Field: "request_id", Err: err}
	}
	if sok.Expires, err = r.GetVarint(); err != nil {
		return sok, &wire.FieldError{Field: "expires", Err: err}
	}
	groupOrder, err := r.GetUint8()
	if err != nil {
		return sok, &wire.FieldError{Field: "group_order", Err: err}
	}
	sok.GroupOrder = GroupOrder(groupOrder)
	if sok.ContentExists, err = getBool(r); err != nil {
		return sok, &wire.FieldError{Field: "content_exists", Err: err}
	}
	if sok.ContentExists {
		if sok.LargestGroup, err = r.GetVarint(); err != nil {
			return sok, &wire.FieldError{Field: "largest_group", Err: err}
		}
		if sok.LargestObj, err = r.GetVarint(); err != nil {
			return sok, &wire.FieldError{Field: "largest_object", Err: err}
		}
	}
	if sok.Params, err = getParams(r); err != nil {
		return sok, err
	}
	return sok, nil
}

// SubscribeError rejects a subscription.
type SubscribeError struct {
	RequestID    uint64
	ErrorCode    RequestErrorCode
	ReasonPhrase string
	TrackAlias   uint64 // present when ErrorCode == ErrCodeRetryTrackAlias
}

// Serialize encodes a SUBSCRIBE_ERROR payload.
func (se SubscribeError) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutVarint(se.RequestID)
	w.PutVarint(uint64(se.ErrorCode))
	w.PutReasonPhrase(se.ReasonPhrase)
	if se.ErrorCode == ErrCodeRetryTrackAlias {
		w.PutVarint(se.TrackAlias)
	}
	return w.Bytes()
}

// ParseSubscribeError decodes a SUBSCRIBE_ERROR payload.
func ParseSubscribeError(data []byte) (SubscribeError, error) {
	r := wire.NewReader(data)
	var se SubscribeError
	var err error
	if se.RequestID, err = r.GetVarint(); err != nil {
		return se, &wire.FieldError{Field: "request_id", Err: err}
	}
	errCode, err := r.GetVarint()
	if err != nil {
		return se, &wire.FieldError{Field: "error_code", Err: err}
	}
	se.ErrorCode = RequestErrorCode(errCode)
	if se.ReasonPhrase, err = r.GetReasonPhrase(); err != nil {
		return se, &wire.FieldError{Field: "reason_phrase", Err: err}
	}
	if se.ErrorCode == ErrCodeRetryTrackAlias {
		if se.TrackAlias, err = r.GetVarint(); err != nil {
			return se, &wire.FieldError{Field: "track_alias", Err: err}
		}
	}
	return se, nil
}

// SubscribeUpdate narrows an existing subscription's window or priority.
type SubscribeUpdate struct {
	RequestID  uint64
	StartGroup uint64
	StartObj   uint64
	EndGroup   uint64
	Priority   uint8
	Forward    bool
	Params     []wire.KeyValuePair
}

// Serialize encodes a SUBSCRIBE_UPDATE payload.
func (su SubscribeUpdate) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutVarint(su.RequestID)
	w.PutVarint(su.StartGroup)
	w.PutVarint(su.StartObj)
	w.PutVarint(su.EndGroup)
	w.PutUint8(su.Priority)
	putBool(w, su.Forward)
	putParams(w, su.Params)
	return w.Bytes()
}

// ParseSubscribeUpdate decodes a SUBSCRIBE_UPDATE payload.
func ParseSubscribeUpdate(data []byte) (SubscribeUpdate, error) {
	r := wire.NewReader(data)
	var su SubscribeUpdate
	var err error
	if su.RequestID, err = r.GetVarint(); err != nil {
		return su, &wire.FieldError{Field: "request_id", Err: err}
	}
	if su.StartGroup, err = r.GetVarint(); err != nil {
		return su, &wire.FieldError{Field: "start_group", Err: err}
	}
	if su.StartObj, err = r.GetVarint(); err != nil {
		return su, &wire.FieldError{Field: "start_object", Err: err}
	}
	if su.EndGroup, err = r.GetVarint(); err != nil {
		return su, &wire.FieldError{Field: "end_group", Err: err}
	}
	if su.Priority, err = r.GetUint8(); err != nil {
		return su, &wire.FieldError{Field: "priority", Err: err}
	}
	if su.Forward, err = getBool(r); err != nil {
		return su, &wire.FieldError{Field: "forward", Err: err}
	}
	if su.Params, err = getParams(r); err != nil {
		return su, err
	}
	return su, nil
}

// SubscribeDone signals the end of a subscription's delivery.
type SubscribeDone struct {
	RequestID     uint64
	StatusCode    SubscribeDoneCode
	StreamsOpened uint64
	ReasonPhrase  string
}

// Serialize encodes a SUBSCRIBE_DONE payload.
func (sd SubscribeDone) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutVarint(sd.RequestID)
	w.PutVarint(uint64(sd.StatusCode))
	w.PutVarint(sd.StreamsOpened)
	w.PutReasonPhrase(sd.ReasonPhrase)
	return w.Bytes()
}

// ParseSubscribeDone decodes a SUBSCRIBE_DONE payload.
func ParseSubscribeDone(data []byte) (SubscribeDone, error) {
	r := wire.NewReader(data)
	var sd SubscribeDone
	var err error
	if sd.RequestID, err = r.GetVarint(); err != nil {
		return sd, &wire.FieldError{Field: "request_id", Err: err}
	}
	statusCode, err := r.GetVarint()
	if err != nil {
		return sd, &wire.FieldError{Field: "status_code", Err: err}
	}
	sd.StatusCode = SubscribeDoneCode(statusCode)
	if sd.StreamsOpened, err = r.GetVarint(); err != nil {
		return sd, &wire.FieldError{Field: "streams_opened", Err: err}
	}
	if sd.ReasonPhrase, err = r.GetReasonPhrase(); err != nil {
		return sd, &wire.FieldError{Field: "reason_phrase", Err: err}
	}
	return sd, nil
}

// Unsubscribe cancels a subscription.
type Unsubscribe struct {
	RequestID uint64
}

// Serialize encodes an UNSUBSCRIBE payload.
func (u Unsubscribe) Serialize() []byte {
	w := wire.NewWriter(8)
	w.PutVarint(u.RequestID)
	return w.Bytes()
}

// ParseUnsubscribe decodes an UNSUBSCRIBE payload.
func ParseUnsubscribe(data []byte) (Unsubscribe, error) {
	r := wire.NewReader(data)
	reqID, err := r.GetVarint()
	if err != nil {
		return Unsubscribe{}, &wire.FieldError{Field: "request_id", Err: err}
	}
	return Unsubscribe{RequestID: reqID}, nil
}
