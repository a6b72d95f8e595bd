package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// chunkReader returns at most size bytes per Read call, forcing the
// short-read path in io.ReadFull.
type chunkReader struct {
	buf  *bytes.Buffer
	size int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(p) > c.size {
		p = p[:c.size]
	}
	return c.buf.Read(p)
}

func sampleResponse() *ServerResponse {
	return &ServerResponse{
		Status:    "ready",
		HasStatus: true,
		LocationUpdate: &LocationUpdate{
			Latitude:    51.5,
			Longitude:   -0.12,
			Altitude:    35.5,
			Accuracy:    4.2,
			Bearing:     270.0,
			Speed:       1.5,
			Satellites:  7,
			Provider:    "gps",
			LocationAge: 0.25,
			Timestamp:   1700000000000,
		},
	}
}

func TestReadMessageRoundtrip(t *testing.T) {
	payload := sampleResponse().Marshal()
	var b bytes.Buffer
	err := WriteMessage(&b, payload)
	if err != nil {
		t.Fatal(err)
	}
	msg := FrameMessage{}
	err = ReadMessage(&b, &msg)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Length != len(payload) {
		t.Errorf("length %d, want %d", msg.Length, len(payload))
	}
	if !bytes.Equal(msg.Payload, payload) {
		t.Error("payload mismatch")
	}
}

func TestReadMessageChunked(t *testing.T) {
	payload := sampleResponse().Marshal()
	full := len(payload) + 4
	for size := 1; size <= full; size++ {
		var b bytes.Buffer
		if err := WriteMessage(&b, payload); err != nil {
			t.Fatal(err)
		}
		msg := FrameMessage{}
		err := ReadMessage(&chunkReader{buf: &b, size: size}, &msg)
		if err != nil {
			t.Fatalf("chunk size %d: %v", size, err)
		}
		if !bytes.Equal(msg.Payload, payload) {
			t.Errorf("chunk size %d: payload mismatch", size)
		}
	}
}

func TestReadMessageBufferReuse(t *testing.T) {
	var b bytes.Buffer
	if err := WriteMessage(&b, []byte("first-payload")); err != nil {
		t.Fatal(err)
	}
	if err := WriteMessage(&b, []byte("2nd")); err != nil {
		t.Fatal(err)
	}
	msg := FrameMessage{}
	if err := ReadMessage(&b, &msg); err != nil {
		t.Fatal(err)
	}
	if err := ReadMessage(&b, &msg); err != nil {
		t.Fatal(err)
	}
	if string(msg.Payload) != "2nd" {
		t.Errorf("got %q", msg.Payload)
	}
}

func TestReadMessageTruncatedHeader(t *testing.T) {
	msg := FrameMessage{}
	err := ReadMessage(bytes.NewReader([]byte{0x00, 0x00}), &msg)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("got %v, want unexpected EOF", err)
	}
}

func TestReadMessageTruncatedPayload(t *testing.T) {
	var b bytes.Buffer
	if err := WriteMessage(&b, []byte("cut me short")); err != nil {
		t.Fatal(err)
	}
	trunc := b.Bytes()[:b.Len()-5]
	msg := FrameMessage{}
	err := ReadMessage(bytes.NewReader(trunc), &msg)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("got %v, want unexpected EOF", err)
	}
}

func TestReadMessageEmptyStream(t *testing.T) {
	msg := FrameMessage{}
	err := ReadMessage(bytes.NewReader(nil), &msg)
	if !errors.Is(err, io.EOF) {
		t.Errorf("got %v, want EOF", err)
	}
}

func TestReadMessageBadLength(t *testing.T) {
	cases := [][]byte{
		{0x00, 0x00, 0x00, 0x00},             // zero length
		{0xFF, 0xFF, 0xFF, 0xFF, 0x01, 0x02}, // over the cap
	}
	for i, c := range cases {
		msg := FrameMessage{}
		err := ReadMessage(bytes.NewReader(c), &msg)
		if !errors.Is(err, errBadFrame) {
			t.Errorf("case %d: got %v, want bad frame", i, err)
		}
	}
}

func TestWriteMessageRejectsEmpty(t *testing.T) {
	var b bytes.Buffer
	if err := WriteMessage(&b, nil); !errors.Is(err, errBadFrame) {
		t.Errorf("got %v, want bad frame", err)
	}
}
