package protocol

import "github.com/streaming-university/moqtail-sub001/internal/wire"

// putParams appends a varint count followed by each KeyValuePair, the
// generic setup/request parameter list shape shared by most control
// messages.
func putParams(w *wire.Writer, params []wire.KeyValuePair) {
	w.PutVarint(uint64(len(params)))
	for _, p := range params {
		w.PutKeyValuePair(p)
	}
}

// getParams decodes a parameter list written by putParams.
func getParams(r *wire.Reader) ([]wire.KeyValuePair, error) {
	n, err := r.GetVarint()
	if err != nil {
		return nil, &wire.FieldError{Field: "num_params", Err: err}
	}
	params := make([]wire.KeyValuePair, 0, n)
	for i := uint64(0); i < n; i++ {
		kv, err := r.GetKeyValuePair()
		if err != nil {
			return nil, &wire.FieldError{Field: "param", Err: err}
		}
		params = append(params, kv)
	}
	return params, nil
}
