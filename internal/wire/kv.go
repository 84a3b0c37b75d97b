package wire

// maxKVBytesValue bounds the byte-string form of an extension value.
const maxKVBytesValue = 65535

// KeyValuePair is a single setup parameter or object extension header:
// a type key whose parity selects the value's encoding. Even types
// carry a varint value; odd types carry a length-prefixed byte string.
// This convention is shared by SETUP parameters and object extension
// headers alike.
type KeyValuePair struct {
	Type        uint64
	VarintValue uint64
	BytesValue  []byte
}

// IsVarint reports whether the pair's type selects the varint encoding.
func (kv KeyValuePair) IsVarint() bool { return kv.Type%2 == 0 }

// NewVarintKV builds a KeyValuePair carrying a varint value. t must be
// even; NewVarintKV returns ErrKeyValueFormatting otherwise.
func NewVarintKV(t, v uint64) (KeyValuePair, error) {
	if t%2 != 0 {
		return KeyValuePair{}, ErrKeyValueFormatting
	}
	return KeyValuePair{Type: t, VarintValue: v}, nil
}

// NewBytesKV builds a KeyValuePair carrying a byte-string value. t must
// be odd and b must not exceed maxKVBytesValue bytes.
func NewBytesKV(t uint64, b []byte) (KeyValuePair, error) {
	if t%2 == 0 {
		return KeyValuePair{}, ErrKeyValueFormatting
	}
	if len(b) > maxKVBytesValue {
		return KeyValuePair{}, ErrLengthExceedsMax
	}
	return KeyValuePair{Type: t, BytesValue: b}, nil
}

// PutKeyValuePair appends kv using the even/odd type-parity encoding.
func (w *Writer) PutKeyValuePair(kv KeyValuePair) {
	w.PutVarint(kv.Type)
	if kv.IsVarint() {
		w.PutVarint(kv.VarintValue)
		return
	}
	w.PutBytes(kv.BytesValue)
}

// GetKeyValuePair decodes a KeyValuePair written by PutKeyValuePair.
func (r *Reader) GetKeyValuePair() (KeyValuePair, error) {
	mark := r.Checkpoint()
	t, err := r.GetVarint()
	if err != nil {
		r.Restore(mark)
		return KeyValuePair{}, err
	}
	if t%2 == 0 {
		v, err := r.GetVarint()
		if err != nil {
			r.Restore(mark)
			return KeyValuePair{}, err
		}
		return KeyValuePair{Type: t, VarintValue: v}, nil
	}
	b, err := r.GetBytes()
	if err != nil {
		r.Restore(mark)
		return KeyValuePair{}, err
	}
	if len(b) > maxKVBytesValue {
		r.Restore(mark)
		return KeyValuePair{}, ErrLengthExceedsMax
	}
	return KeyValuePair{Type: t, BytesValue: b}, nil
}
