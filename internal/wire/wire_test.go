package wire

import (
	"bytes"
	"testing"
)

func TestVarintRoundTrip(t *testing.T) {
	t.Parallel()
	cases := []uint64{0, 1, 63, 64, 16383, 16384, 1073741823, 1073741824, 1 << 40}
	for _, v := range cases {
		w := NewWriter(8)
		w.PutVarint(v)
		r := NewReader(w.Bytes())
		got, err := r.GetVarint()
		if err != nil {
			t.Fatalf("GetVarint(%d): unexpected error: %v", v, err)
		}
		if got != v {
			t.Fatalf("GetVarint round trip: got %d, want %d", got, v)
		}
		if r.Len() != 0 {
			t.Fatalf("GetVarint left %d unread bytes", r.Len())
		}
	}
}

func TestVarintShortInputRestoresCheckpoint(t *testing.T) {
	t.Parallel()
	w := NewWriter(8)
	w.PutVarint(1073741824) // 8-byte varint
	truncated := w.Bytes()[:2]

	r := NewReader(truncated)
	mark := r.Checkpoint()
	if _, err := r.GetVarint(); err != ErrNotEnoughBytes {
		t.Fatalf("GetVarint on truncated input: got err %v, want ErrNotEnoughBytes", err)
	}
	if r.Checkpoint() != mark {
		t.Fatalf("GetVarint moved the cursor despite failing")
	}
}

func TestFixedWidthRoundTrip(t *testing.T) {
	t.Parallel()
	w := NewWriter(4)
	w.PutUint8(0xAB)
	w.PutUint16(0x1234)

	r := NewReader(w.Bytes())
	u8, err := r.GetUint8()
	if err != nil || u8 != 0xAB {
		t.Fatalf("GetUint8: got (%v, %v), want (0xAB, nil)", u8, err)
	}
	u16, err := r.GetUint16()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("GetUint16: got (%v, %v), want (0x1234, nil)", u16, err)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	t.Parallel()
	payload := []byte("hello moqt")
	w := NewWriter(16)
	w.PutBytes(payload)

	r := NewReader(w.Bytes())
	got, err := r.GetBytes()
	if err != nil {
		t.Fatalf("GetBytes: unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("GetBytes: got %q, want %q", got, payload)
	}
}

func TestBytesNotEnoughBytes(t *testing.T) {
	t.Parallel()
	w := NewWriter(16)
	w.PutBytes([]byte("hello"))
	truncated := w.Bytes()[:len(w.Bytes())-2]

	r := NewReader(truncated)
	mark := r.Checkpoint()
	if _, err := r.GetBytes(); err != ErrNotEnoughBytes {
		t.Fatalf("GetBytes on truncated input: got err %v, want ErrNotEnoughBytes", err)
	}
	if r.Checkpoint() != mark {
		t.Fatalf("GetBytes moved the cursor despite failing")
	}
}

func TestTupleRoundTrip(t *testing.T) {
	t.Parallel()
	fields := [][]byte{[]byte("conf"), []byte("stream"), []byte("0")}
	w := NewWriter(32)
	w.PutTuple(fields)

	r := NewReader(w.Bytes())
	got, err := r.GetTuple()
	if err != nil {
		t.Fatalf("GetTuple: unexpected error: %v", err)
	}
	if len(got) != len(fields) {
		t.Fatalf("GetTuple: got %d fields, want %d", len(got), len(fields))
	}
	for i := range fields {
		if !bytes.Equal(got[i], fields[i]) {
			t.Fatalf("GetTuple field %d: got %q, want %q", i, got[i], fields[i])
		}
	}
}

func TestTupleRejectsOversizedFieldCount(t *testing.T) {
	t.Parallel()
	w := NewWriter(8)
	w.PutVarint(maxTupleFields + 1)

	r := NewReader(w.Bytes())
	if _, err := r.GetTuple(); err != ErrLengthExceedsMax {
		t.Fatalf("GetTuple with oversized count: got err %v, want ErrLengthExceedsMax", err)
	}
}

func TestReasonPhraseRoundTrip(t *testing.T) {
	t.Parallel()
	w := NewWriter(16)
	w.PutReasonPhrase("track not found")

	r := NewReader(w.Bytes())
	got, err := r.GetReasonPhrase()
	if err != nil {
		t.Fatalf("GetReasonPhrase: unexpected error: %v", err)
	}
	if got != "track not found" {
		t.Fatalf("GetReasonPhrase: got %q, want %q", got, "track not found")
	}
}

func TestReasonPhraseRejectsInvalidUTF8(t *testing.T) {
	t.Parallel()
	w := NewWriter(8)
	w.PutBytes([]byte{0xff, 0xfe, 0xfd})

	r := NewReader(w.Bytes())
	if _, err := r.GetReasonPhrase(); err != ErrInvalidUTF8 {
		t.Fatalf("GetReasonPhrase on invalid utf-8: got err %v, want ErrInvalidUTF8", err)
	}
}

func TestReasonPhraseRejectsOversizedLength(t *testing.T) {
	t.Parallel()
	w := NewWriter(8)
	w.PutVarint(maxReasonPhraseBytes + 1)

	r := NewReader(w.Bytes())
	if _, err := r.GetReasonPhrase(); err != ErrLengthExceedsMax {
		t.Fatalf("GetReasonPhrase with oversized length: got err %v, want ErrLengthExceedsMax", err)
	}
}

func TestKeyValuePairVarintRoundTrip(t *testing.T) {
	t.Parallel()
	kv, err := NewVarintKV(2, 42)
	if err != nil {
		t.Fatalf("NewVarintKV: unexpected error: %v", err)
	}
	w := NewWriter(8)
	w.PutKeyValuePair(kv)

	r := NewReader(w.Bytes())
	got, err := r.GetKeyValuePair()
	if err != nil {
		t.Fatalf("GetKeyValuePair: unexpected error: %v", err)
	}
	if got.Type != 2 || got.VarintValue != 42 || !got.IsVarint() {
		t.Fatalf("GetKeyValuePair: got %+v, want type=2 value=42", got)
	}
}

func TestKeyValuePairBytesRoundTrip(t *testing.T) {
	t.Parallel()
	kv, err := NewBytesKV(3, []byte("caption"))
	if err != nil {
		t.Fatalf("NewBytesKV: unexpected error: %v", err)
	}
	w := NewWriter(16)
	w.PutKeyValuePair(kv)

	r := NewReader(w.Bytes())
	got, err := r.GetKeyValuePair()
	if err != nil {
		t.Fatalf("GetKeyValuePair: unexpected error: %v", err)
	}
	if got.Type != 3 || !bytes.Equal(got.BytesValue, []byte("caption")) || got.IsVarint() {
		t.Fatalf("GetKeyValuePair: got %+v, want type=3 value=caption", got)
	}
}

func TestNewVarintKVRejectsOddType(t *testing.T) {
	t.Parallel()
	if _, err := NewVarintKV(3, 1); err != ErrKeyValueFormatting {
		t.Fatalf("NewVarintKV with odd type: got err %v, want ErrKeyValueFormatting", err)
	}
}

func TestNewBytesKVRejectsEvenType(t *testing.T) {
	t.Parallel()
	if _, err := NewBytesKV(2, []byte("x")); err != ErrKeyValueFormatting {
		t.Fatalf("NewBytesKV with even type: got err %v, want ErrKeyValueFormatting", err)
	}
}
