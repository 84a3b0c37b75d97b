package wire

// maxTupleFields bounds the field count read by GetTuple so a corrupt
// or adversarial varint can't force an unbounded allocation loop.
// Namespace-specific bounds (1..32 fields per spec.md's FullTrackName)
// are enforced by the caller that constructs a FullTrackName, not here.
const maxTupleFields = 1024

// PutTuple appends a varint field count followed by each field encoded
// as a length-prefixed byte blob, as used for track namespace tuples.
func (w *Writer) PutTuple(fields [][]byte) {
	w.PutVarint(uint64(len(fields)))
	for _, f := range fields {
		w.PutBytes(f)
	}
}

// GetTuple decodes a tuple written by PutTuple. The returned slices
// alias the reader's buffer.
func (r *Reader) GetTuple() ([][]byte, error) {
	mark := r.Checkpoint()
	n, err := r.GetVarint()
	if err != nil {
		r.Restore(mark)
		return nil, err
	}
	if n > maxTupleFields {
		r.Restore(mark)
		return nil, ErrLengthExceedsMax
	}
	fields := make([][]byte, 0, n)
	for i := uint64(0); i < n; i++ {
		f, err := r.GetBytes()
		if err != nil {
			r.Restore(mark)
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}
