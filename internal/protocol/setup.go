package protocol

import "github.com/streaming-university/moqtail-sub001/internal/wire"

// ClientSetup is the first message a client sends on the control stream.
type ClientSetup struct {
	Versions []uint64
	Params   []wire.KeyValuePair
}

// ServerSetup is the peer's reply to ClientSetup.
type ServerSetup struct {
	SelectedVersion uint64
	Params          []wire.KeyValuePair
}

// Serialize encodes a CLIENT_SETUP payload.
func (cs ClientSetup) Serialize() []byte {
	w := wire.NewWriter(32)
	w.PutVarint(uint64(len(cs.Versions)))
	for _, v := range cs.Versions {
		w.PutVarint(v)
	}
	putParams(w, cs.Params)
	return w.Bytes()
}

// ParseClientSetup decodes a CLIENT_SETUP payload.
func ParseClientSetup(data []byte) (ClientSetup, error) {
	r := wire.NewReader(data)
	var cs ClientSetup

	numVersions, err := r.GetVarint()
	if err != nil {
		return cs, &wire.FieldError{Field: "num_versions", Err: err}
	}
	cs.Versions = make([]uint64, numVersions)
	for i := range cs.Versions {
		v, err := r.GetVarint()
		if err != nil {
			return cs, &wire.FieldError{Field: "version", Err: err}
		}
		cs.Versions[i] = v
	}

	cs.Params, err = getParams(r)
	if err != nil {
		return cs, err
	}
	return cs, nil
}

// Serialize encodes a SERVER_SETUP payload.
func (ss ServerSetup) Serialize() []byte {
	w := wire.NewWriter(16)
	w.PutVarint(ss.SelectedVersion)
	putParams(w, ss.Params)
	return w.Bytes()
}

// ParseServerSetup decodes a SERVER_SETUP payload.
func ParseServerSetup(data []byte) (ServerSetup, error) {
	r := wire.NewReader(data)
	var ss ServerSetup
	var err error
	ss.SelectedVersion, err = r.GetVarint()
	if err != nil {
		return ss, &wire.FieldError{Field: "selected_version", Err: err}
	}
	ss.Params, err = getParams(r)
	if err != nil {
		return ss, err
	}
	return ss, nil
}

// Path extracts the Path setup parameter, if present.
func Path(params []wire.KeyValuePair) (string, bool) {
	for _, p := range params {
		if p.Type == ParamPath {
			return string(p.BytesValue), true
		}
	}
	return "", false
}

// MaxRequestIDParam extracts the MaxRequestId setup parameter, if present.
func MaxRequestIDParam(params []wire.KeyValuePair) (uint64, bool) {
	for _, p := range params {
		if p.Type == ParamMaxRequestID {
			return p.VarintValue, true
		}
	}
	return 0, false
}
