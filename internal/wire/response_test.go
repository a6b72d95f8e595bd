package wire

import (
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestResponseRoundtrip(t *testing.T) {
	want := sampleResponse()
	var got ServerResponse
	if err := got.Unmarshal(want.Marshal()); err != nil {
		t.Fatal(err)
	}
	if !got.HasStatus || got.Status != want.Status {
		t.Errorf("status %q hasStatus=%v", got.Status, got.HasStatus)
	}
	if got.LocationUpdate == nil {
		t.Fatal("location update missing")
	}
	if *got.LocationUpdate != *want.LocationUpdate {
		t.Errorf("got %+v, want %+v", *got.LocationUpdate, *want.LocationUpdate)
	}
}

func TestResponseStatusOnly(t *testing.T) {
	want := &ServerResponse{Status: "ready", HasStatus: true}
	var got ServerResponse
	if err := got.Unmarshal(want.Marshal()); err != nil {
		t.Fatal(err)
	}
	if got.Status != "ready" || !got.HasStatus {
		t.Errorf("status %q hasStatus=%v", got.Status, got.HasStatus)
	}
	if got.LocationUpdate != nil {
		t.Error("unexpected location update")
	}
}

func TestResponseEmpty(t *testing.T) {
	var got ServerResponse
	if err := got.Unmarshal(nil); err != nil {
		t.Fatal(err)
	}
	if got.HasStatus || got.LocationUpdate != nil {
		t.Errorf("got %+v, want empty", got)
	}
}

func TestResponseEmptyStatusPresent(t *testing.T) {
	// An explicitly encoded empty string still counts as present.
	var got ServerResponse
	if err := got.Unmarshal((&ServerResponse{HasStatus: true}).Marshal()); err != nil {
		t.Fatal(err)
	}
	if !got.HasStatus {
		t.Error("empty status field lost")
	}
}

func TestResponseSkipsUnknownFields(t *testing.T) {
	b := (&ServerResponse{Status: "ok", HasStatus: true}).Marshal()
	b = protowire.AppendTag(b, 15, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = protowire.AppendTag(b, 16, protowire.BytesType)
	b = protowire.AppendString(b, "future")
	var got ServerResponse
	if err := got.Unmarshal(b); err != nil {
		t.Fatal(err)
	}
	if got.Status != "ok" {
		t.Errorf("status %q", got.Status)
	}
}

func TestResponseMalformed(t *testing.T) {
	cases := [][]byte{
		{0x0A},             // status tag, missing length
		{0x12, 0x05, 0x01}, // nested message shorter than declared
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	}
	for i, c := range cases {
		var got ServerResponse
		if err := got.Unmarshal(c); err == nil {
			t.Errorf("case %d: decode succeeded on malformed input", i)
		}
	}
}

func TestLocationUpdateNegativeValues(t *testing.T) {
	want := &ServerResponse{LocationUpdate: &LocationUpdate{
		Latitude:  -33.86,
		Longitude: 151.2,
		Bearing:   359.9,
		Timestamp: 1700000000000,
	}}
	var got ServerResponse
	if err := got.Unmarshal(want.Marshal()); err != nil {
		t.Fatal(err)
	}
	if *got.LocationUpdate != *want.LocationUpdate {
		t.Errorf("got %+v, want %+v", *got.LocationUpdate, *want.LocationUpdate)
	}
}
