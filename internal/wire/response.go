package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ServerResponse is the payload of every frame. Both fields are optional;
// a status-only response is a valid heartbeat.
type ServerResponse struct {
	Status         string
	HasStatus      bool
	LocationUpdate *LocationUpdate
}

type LocationUpdate struct {
	Latitude    float64
	Longitude   float64
	Altitude    float64
	Accuracy    float32
	Bearing     float32
	Speed       float32
	Satellites  int32
	Provider    string
	LocationAge float32
	Timestamp   int64
}

// Protobuf field numbers of ServerResponse.
const (
	fieldStatus         = 1
	fieldLocationUpdate = 2
)

// Protobuf field numbers of LocationUpdate.
const (
	fieldLatitude    = 1
	fieldLongitude   = 2
	fieldAltitude    = 3
	fieldAccuracy    = 4
	fieldBearing     = 5
	fieldSpeed       = 6
	fieldSatellites  = 7
	fieldProvider    = 8
	fieldLocationAge = 9
	fieldTimestamp   = 10
)

func (r *ServerResponse) Marshal() []byte {
	var b []byte
	if r.HasStatus {
		b = protowire.AppendTag(b, fieldStatus, protowire.BytesType)
		b = protowire.AppendString(b, r.Status)
	}
	if r.LocationUpdate != nil {
		b = protowire.AppendTag(b, fieldLocationUpdate, protowire.BytesType)
		b = protowire.AppendBytes(b, r.LocationUpdate.marshal())
	}
	return b
}

func (u *LocationUpdate) marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldLatitude, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(u.Latitude))
	b = protowire.AppendTag(b, fieldLongitude, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(u.Longitude))
	b = protowire.AppendTag(b, fieldAltitude, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(u.Altitude))
	b = protowire.AppendTag(b, fieldAccuracy, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(u.Accuracy))
	b = protowire.AppendTag(b, fieldBearing, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(u.Bearing))
	b = protowire.AppendTag(b, fieldSpeed, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(u.Speed))
	b = protowire.AppendTag(b, fieldSatellites, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(u.Satellites)))
	b = protowire.AppendTag(b, fieldProvider, protowire.BytesType)
	b = protowire.AppendString(b, u.Provider)
	b = protowire.AppendTag(b, fieldLocationAge, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(u.LocationAge))
	b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(u.Timestamp))
	return b
}

func (r *ServerResponse) Unmarshal(b []byte) error {
	*r = ServerResponse{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("response tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldStatus && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("response status: %w", protowire.ParseError(n))
			}
			r.Status = v
			r.HasStatus = true
			b = b[n:]
		case num == fieldLocationUpdate && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("response location: %w", protowire.ParseError(n))
			}
			u := &LocationUpdate{}
			if err := u.unmarshal(v); err != nil {
				return err
			}
			r.LocationUpdate = u
			b = b[n:]
		default:
			// Unknown fields are skipped so newer servers stay compatible.
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("response field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

func (u *LocationUpdate) unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("location tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		var m int
		switch typ {
		case protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return fmt.Errorf("location field %d: %w", num, protowire.ParseError(n))
			}
			m = n
			switch num {
			case fieldLatitude:
				u.Latitude = math.Float64frombits(v)
			case fieldLongitude:
				u.Longitude = math.Float64frombits(v)
			case fieldAltitude:
				u.Altitude = math.Float64frombits(v)
			}
		case protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return fmt.Errorf("location field %d: %w", num, protowire.ParseError(n))
			}
			m = n
			switch num {
			case fieldAccuracy:
				u.Accuracy = math.Float32frombits(v)
			case fieldBearing:
				u.Bearing = math.Float32frombits(v)
			case fieldSpeed:
				u.Speed = math.Float32frombits(v)
			case fieldLocationAge:
				u.LocationAge = math.Float32frombits(v)
			}
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("location field %d: %w", num, protowire.ParseError(n))
			}
			m = n
			switch num {
			case fieldSatellites:
				u.Satellites = int32(v)
			case fieldTimestamp:
				u.Timestamp = int64(v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("location field %d: %w", num, protowire.ParseError(n))
			}
			m = n
			if num == fieldProvider {
				u.Provider = v
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("location field %d: %w", num, protowire.ParseError(n))
			}
			m = n
		}
		b = b[m:]
	}
	return nil
}
