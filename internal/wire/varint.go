package wire

import (
	"encoding/binary"

	"github.com/quic-go/quic-go/quicvarint"
)

// PutVarint appends v encoded as a QUIC variable-length integer.
func (w *Writer) PutVarint(v uint64) {
	w.buf = quicvarint.Append(w.buf, v)
}

// GetVarint decodes a QUIC variable-length integer. On short input it
// returns ErrNotEnoughBytes and leaves the cursor at its checkpoint so
// the caller can Restore and retry once more bytes arrive.
func (r *Reader) GetVarint() (uint64, error) {
	mark := r.Checkpoint()
	v, n, err := quicvarint.Parse(r.buf[r.pos:])
	if err != nil {
		r.Restore(mark)
		return 0, ErrNotEnoughBytes
	}
	r.pos += n
	return v, nil
}

// PutUint8 appends a single byte.
func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// GetUint8 reads a single byte.
func (r *Reader) GetUint8() (uint8, error) {
	if r.Len() < 1 {
		return 0, ErrNotEnoughBytes
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// PutUint16 appends v big-endian.
func (w *Writer) PutUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// GetUint16 reads a big-endian uint16.
func (r *Reader) GetUint16() (uint16, error) {
	if r.Len() < 2 {
		return 0, ErrNotEnoughBytes
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}
