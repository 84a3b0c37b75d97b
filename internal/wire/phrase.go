package wire

import "unicode/utf8"

// maxReasonPhraseBytes bounds reason-phrase strings carried on error
// and termination messages (SubscribeError, FetchError, GoAway, ...).
const maxReasonPhraseBytes = 1024

// PutReasonPhrase appends s as a varint-length-prefixed UTF-8 string.
func (w *Writer) PutReasonPhrase(s string) {
	w.PutBytes([]byte(s))
}

// GetReasonPhrase decodes a length-prefixed UTF-8 string, rejecting
// phrases over maxReasonPhraseBytes or containing invalid UTF-8. The
// length bound is checked against the declared length before the byte
// count is required to be present, so a too-long declaration fails
// with ErrLengthExceedsMax rather than ErrNotEnoughBytes.
func (r *Reader) GetReasonPhrase() (string, error) {
	mark := r.Checkpoint()
	n, err := r.GetVarint()
	if err != nil {
		r.Restore(mark)
		return "", err
	}
	if n > maxReasonPhraseBytes {
		r.Restore(mark)
		return "", ErrLengthExceedsMax
	}
	if uint64(r.Len()) < n {
		r.Restore(mark)
		return "", ErrNotEnoughBytes
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	if !utf8.Valid(b) {
		r.Restore(mark)
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}
