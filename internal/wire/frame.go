package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds the declared payload length. The server never sends
// frames anywhere near this; anything larger means a desynchronized or
// hostile stream.
const MaxFrameSize = 64 * 1024

var errBadFrame = errors.New("bad frame")

// FrameMessage carries one decoded frame. Buffer is reused across reads so
// the reader loop does not allocate per message; Payload aliases Buffer and
// is only valid until the next ReadMessage call.
type FrameMessage struct {
	Length  int
	Payload []byte
	Buffer  []byte
}

func ReadMessage(r io.Reader, msg *FrameMessage) error {
	return readMessage(r, msg)
}

func readMessage(r io.Reader, msg *FrameMessage) error {
	var hdr [4]byte

	_, err := io.ReadFull(r, hdr[:])
	if err != nil {
		return err
	}
	length := int(binary.BigEndian.Uint32(hdr[:]))
	if length == 0 || length > MaxFrameSize {
		return fmt.Errorf("%w: declared length %d", errBadFrame, length)
	}
	if len(msg.Buffer) < length {
		msg.Buffer = make([]byte, length)
	}
	msg.Length = length

	_, err = io.ReadFull(r, msg.Buffer[:length])
	if err != nil {
		// A peer that closes mid-frame yields io.ErrUnexpectedEOF here,
		// never a truncated payload.
		return err
	}
	msg.Payload = msg.Buffer[:length]
	return nil
}

// WriteMessage frames payload with the 4-byte big-endian length prefix.
// Used by tests and by any tool speaking the server side of the protocol.
func WriteMessage(w io.Writer, payload []byte) error {
	if len(payload) == 0 || len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: payload length %d", errBadFrame, len(payload))
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
