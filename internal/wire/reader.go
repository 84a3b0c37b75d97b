package wire

// Reader is a cursor over an in-memory byte slice. It never copies the
// underlying buffer; Get* methods slice directly into it.
//
// Callers follow a checkpoint/restore discipline: take a Checkpoint
// before attempting to decode a value, and Restore to it if the attempt
// fails with ErrNotEnoughBytes. This lets a partially-received control
// message or object be re-attempted as more bytes arrive without losing
// the caller's place.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for decoding. buf is not copied.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Checkpoint returns a mark that Restore can rewind to.
func (r *Reader) Checkpoint() int { return r.pos }

// Restore rewinds the cursor to a previously taken Checkpoint.
func (r *Reader) Restore(mark int) { r.pos = mark }

// Commit is a documentation no-op: it marks the point at which a caller
// has decided a decode attempt succeeded and the checkpoint is no longer
// needed. Kept distinct from Restore so call sites read symmetrically.
func (r *Reader) Commit(mark int) {}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// Bytes returns the unread remainder of the buffer without advancing
// the cursor.
func (r *Reader) Bytes() []byte { return r.buf[r.pos:] }

// Advance moves the cursor forward n bytes. It panics if n exceeds the
// number of unread bytes; callers must bounds-check with Len first.
func (r *Reader) Advance(n int) { r.pos += n }

// Writer accumulates an encoded message. It is a thin named type over
// []byte so Put* functions can be written as methods instead of
// free functions taking and returning a slice.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer, optionally pre-sized.
func NewWriter(capHint int) *Writer {
	return &Writer{buf: make([]byte, 0, capHint)}
}

// Bytes returns the accumulated encoded bytes.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// PutRaw appends b unframed, with no length prefix. Used for a
// payload whose length was already written separately (e.g. an
// object's payload following its own payload_len varint).
func (w *Writer) PutRaw(b []byte) {
	w.buf = append(w.buf, b...)
}
