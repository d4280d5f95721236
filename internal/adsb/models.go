package adsb

import (
	"bytes"
	"encoding/json"
)

// groundSentinel is what readsb and adsb.lol put in alt_baro for aircraft on the ground
const groundSentinel = "ground"

// Value is an optional field of type T. A JSON value that does not decode as T
// is kept verbatim and written back unchanged, so one odd field never fails a
// whole response. A missing field is represented by a nil *Value.
type Value[T any] struct {
	v   T
	raw json.RawMessage
}

// ValueOf wraps a typed value
func ValueOf[T any](v T) *Value[T] {
	return &Value[T]{v: v}
}

// Get returns the typed value; ok is false when the field held something else
func (f Value[T]) Get() (v T, ok bool) {
	if f.raw != nil {
		return v, false
	}
	return f.v, true
}

// Raw returns the verbatim JSON of a value that did not decode as T
func (f Value[T]) Raw() json.RawMessage {
	return f.raw
}

// MarshalJSON implements json.Marshaler
func (f Value[T]) MarshalJSON() ([]byte, error) {
	if f.raw != nil {
		return f.raw, nil
	}
	return json.Marshal(f.v)
}

// UnmarshalJSON implements json.Unmarshaler
func (f *Value[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		*f = Value[T]{raw: bytes.Clone(bytes.TrimSpace(data))}
		return nil
	}
	*f = Value[T]{v: v}
	return nil
}

// altKind tells the AltBaro cases apart
type altKind int

const (
	altFeet altKind = iota
	altGround
	altOther
)

// AltBaro is a barometric altitude: a value in feet, the "ground" marker, or
// any other JSON value kept verbatim. A missing altitude is a nil *AltBaro.
type AltBaro struct {
	kind altKind
	feet float64
	raw  json.RawMessage
}

// GroundAltitude returns the on-ground marker
func GroundAltitude() *AltBaro {
	return &AltBaro{kind: altGround}
}

// FeetAltitude returns a numeric altitude
func FeetAltitude(feet float64) *AltBaro {
	return &AltBaro{kind: altFeet, feet: feet}
}

// IsGround reports whether the altitude is the ground marker
func (a AltBaro) IsGround() bool {
	return a.kind == altGround
}

// Feet returns the numeric altitude; ok is false for the other cases
func (a AltBaro) Feet() (feet float64, ok bool) {
	if a.kind != altFeet {
		return 0, false
	}
	return a.feet, true
}

// Raw returns the verbatim JSON of an altitude that was neither numeric nor "ground"
func (a AltBaro) Raw() json.RawMessage {
	if a.kind != altOther {
		return nil
	}
	return a.raw
}

// MarshalJSON implements json.Marshaler
func (a AltBaro) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case altGround:
		return json.Marshal(groundSentinel)
	case altOther:
		return a.raw, nil
	default:
		return json.Marshal(a.feet)
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (a *AltBaro) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var s string
	if err := json.Unmarshal(data, &s); err == nil && s == groundSentinel {
		*a = AltBaro{kind: altGround}
		return nil
	}

	var feet float64
	if err := json.Unmarshal(data, &feet); err == nil {
		*a = AltBaro{kind: altFeet, feet: feet}
		return nil
	}

	*a = AltBaro{kind: altOther, raw: bytes.Clone(data)}
	return nil
}

// Snapshot is the readsb aircraft.json document
type Snapshot struct {
	Now      float64    `json:"now"`
	Messages int64      `json:"messages"`
	Aircraft []Aircraft `json:"aircraft"`
}

// Aircraft is one entry of Snapshot.Aircraft. Optional fields are pointers and
// are left out of the output when absent.
type Aircraft struct {
	Hex       *Value[string]  `json:"hex,omitempty"`
	Flight    string          `json:"flight"`
	AltBaro   *AltBaro        `json:"alt_baro,omitempty"`
	AltGeom   *Value[float64] `json:"alt_geom,omitempty"`
	GS        *Value[float64] `json:"gs,omitempty"`
	Track     *Value[float64] `json:"track,omitempty"`
	BaroRate  *Value[float64] `json:"baro_rate,omitempty"`
	Squawk    *Value[string]  `json:"squawk,omitempty"`
	Emergency *Value[string]  `json:"emergency,omitempty"`
	Category  *Value[string]  `json:"category,omitempty"`
	Lat       *Value[float64] `json:"lat,omitempty"`
	Lon       *Value[float64] `json:"lon,omitempty"`
	NIC       *Value[int]     `json:"nic,omitempty"`
	RC        *Value[int]     `json:"rc,omitempty"`
	SeenPos   *Value[float64] `json:"seen_pos,omitempty"`
	Version   *Value[int]     `json:"version,omitempty"`
	NICBaro   *Value[int]     `json:"nic_baro,omitempty"`
	NACP      *Value[int]     `json:"nac_p,omitempty"`
	NACV      *Value[int]     `json:"nac_v,omitempty"`
	SIL       *Value[int]     `json:"sil,omitempty"`
	SILType   *Value[string]  `json:"sil_type,omitempty"`
	GVA       *Value[int]     `json:"gva,omitempty"`
	SDA       *Value[int]     `json:"sda,omitempty"`
	MLAT      Value[[]string] `json:"mlat"`
	TISB      Value[[]string] `json:"tisb"`
	Messages  Value[int64]    `json:"messages"`
	Seen      Value[float64]  `json:"seen"`
	RSSI      *Value[float64] `json:"rssi,omitempty"`
}

// RemoteResponse is the adsb.lol v2 radius query response
type RemoteResponse struct {
	AC    []RemoteAircraft `json:"ac"`
	Msg   string           `json:"msg,omitempty"`
	Now   float64          `json:"now,omitempty"` // milliseconds
	Total int              `json:"total,omitempty"`
	CTime float64          `json:"ctime,omitempty"`
	PTime float64          `json:"ptime,omitempty"`
}

// RemoteAircraft is one entry of RemoteResponse.AC; every field may be missing
type RemoteAircraft struct {
	Hex       *Value[string]   `json:"hex"`
	Flight    *Value[string]   `json:"flight"`
	AltBaro   *AltBaro         `json:"alt_baro"`
	AltGeom   *Value[float64]  `json:"alt_geom"`
	GS        *Value[float64]  `json:"gs"`
	Track     *Value[float64]  `json:"track"`
	BaroRate  *Value[float64]  `json:"baro_rate"`
	Squawk    *Value[string]   `json:"squawk"`
	Emergency *Value[string]   `json:"emergency"`
	Category  *Value[string]   `json:"category"`
	Lat       *Value[float64]  `json:"lat"`
	Lon       *Value[float64]  `json:"lon"`
	NIC       *Value[int]      `json:"nic"`
	RC        *Value[int]      `json:"rc"`
	SeenPos   *Value[float64]  `json:"seen_pos"`
	Version   *Value[int]      `json:"version"`
	NICBaro   *Value[int]      `json:"nic_baro"`
	NACP      *Value[int]      `json:"nac_p"`
	NACV      *Value[int]      `json:"nac_v"`
	SIL       *Value[int]      `json:"sil"`
	SILType   *Value[string]   `json:"sil_type"`
	GVA       *Value[int]      `json:"gva"`
	SDA       *Value[int]      `json:"sda"`
	MLAT      *Value[[]string] `json:"mlat"`
	TISB      *Value[[]string] `json:"tisb"`
	Messages  *Value[int64]    `json:"messages"`
	Seen      *Value[float64]  `json:"seen"`
	RSSI      *Value[float64]  `json:"rssi"`
}

// UnmarshalJSON treats an entry that is not an object as a record with no fields
func (r *RemoteAircraft) UnmarshalJSON(data []byte) error {
	type plain RemoteAircraft
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		*r = RemoteAircraft{}
		return nil
	}
	return json.Unmarshal(data, (*plain)(r))
}

// LocalSnapshot is the local aircraft.json kept byte for byte. readsb writes
// far more fields than Aircraft models, and all of them are passed on.
type LocalSnapshot struct {
	raw           json.RawMessage
	aircraftCount int
}

// AircraftCount is the number of entries in the local aircraft array
func (s *LocalSnapshot) AircraftCount() int {
	return s.aircraftCount
}

// MarshalJSON returns the file contents unchanged
func (s *LocalSnapshot) MarshalJSON() ([]byte, error) {
	return s.raw, nil
}

// Resolution is the outcome of one source resolution. Data is either a
// *LocalSnapshot or a translated *Snapshot and is encoded with json.Marshal.
type Resolution struct {
	Source        string
	Data          any
	AircraftCount int
}
