package wire

// PutBytes appends a varint length prefix followed by b.
func (w *Writer) PutBytes(b []byte) {
	w.PutVarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// GetBytes decodes a varint length prefix followed by that many bytes,
// returning a slice directly into the reader's buffer (no copy). On
// short input it returns ErrNotEnoughBytes with the cursor restored to
// its position on entry.
func (r *Reader) GetBytes() ([]byte, error) {
	mark := r.Checkpoint()
	n, err := r.GetVarint()
	if err != nil {
		r.Restore(mark)
		return nil, err
	}
	if uint64(r.Len()) < n {
		r.Restore(mark)
		return nil, ErrNotEnoughBytes
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}
