package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/quic-go/quic-go/quicvarint"
)

// MaxControlPayload bounds a single control message's payload; the
// length prefix is a uint16 so this is the wire's own ceiling.
const MaxControlPayload = 0xFFFF

// ReadControlMsg reads one control message from the control stream.
// Wire format: vi(type) u16(payload_len) payload[payload_len].
func ReadControlMsg(r io.Reader) (uint64, []byte, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		bufr := bufio.NewReader(r)
		br = bufr
		r = bufr
	}
	msgType, err := quicvarint.Read(br)
	if err != nil {
		return 0, nil, fmt.Errorf("read message type: %w", err)
	}

	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, fmt.Errorf("read message length: %w", err)
	}
	length := binary.BigEndian.Uint16(lenBuf[:])

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, nil, fmt.Errorf("read message payload: %w", err)
		}
	}
	return msgType, payload, nil
}

// WriteControlMsg writes one control message as a single Write call so
// it is atomic with respect to concurrent writers sharing the stream
// without external synchronization around the call itself.
func WriteControlMsg(w io.Writer, msgType uint64, payload []byte) error {
	if len(payload) > MaxControlPayload {
		return fmt.Errorf("control message payload %d exceeds %d", len(payload), MaxControlPayload)
	}
	buf := quicvarint.Append(nil, msgType)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(payload)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, payload...)
	_, err := w.Write(buf)
	return err
}
