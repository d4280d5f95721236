package adsb

import (
	"encoding/json"
	"strings"
	"time"
)

// Translate converts an adsb.lol response into a readsb snapshot stamped with now.
// Record order is preserved; nothing is filtered or converted.
func Translate(resp *RemoteResponse, now time.Time) *Snapshot {
	snapshot := &Snapshot{
		Now:      unixSeconds(now),
		Messages: 0, // adsb.lol has no receiver-level counter
		Aircraft: []Aircraft{},
	}
	if resp == nil {
		return snapshot
	}

	snapshot.Aircraft = make([]Aircraft, 0, len(resp.AC))
	for _, ac := range resp.AC {
		snapshot.Aircraft = append(snapshot.Aircraft, ac.Convert())
	}
	return snapshot
}

// Convert maps a remote record onto the readsb record
func (r RemoteAircraft) Convert() Aircraft {
	out := Aircraft{
		Hex:       r.Hex,
		Flight:    "",
		AltGeom:   r.AltGeom,
		GS:        r.GS,
		Track:     r.Track,
		BaroRate:  r.BaroRate,
		Squawk:    r.Squawk,
		Emergency: r.Emergency,
		Category:  r.Category,
		Lat:       r.Lat,
		Lon:       r.Lon,
		NIC:       r.NIC,
		RC:        r.RC,
		SeenPos:   r.SeenPos,
		Version:   r.Version,
		NICBaro:   r.NICBaro,
		NACP:      r.NACP,
		NACV:      r.NACV,
		SIL:       r.SIL,
		SILType:   r.SILType,
		GVA:       r.GVA,
		SDA:       r.SDA,
		RSSI:      r.RSSI,
	}

	// a non-string callsign has nothing to trim and becomes empty
	if r.Flight != nil {
		if flight, ok := r.Flight.Get(); ok {
			out.Flight = strings.TrimSpace(flight)
		}
	}

	switch {
	case r.AltBaro == nil:
	case r.AltBaro.IsGround():
		out.AltBaro = GroundAltitude()
	default:
		out.AltBaro = r.AltBaro
	}

	out.MLAT = valueOrDefault(r.MLAT, []string{})
	out.TISB = valueOrDefault(r.TISB, []string{})
	out.Messages = valueOrDefault(r.Messages, 0)
	out.Seen = valueOrDefault(r.Seen, 0)

	return out
}

// valueOrDefault fills in def when the field is missing or holds a falsy
// literal (false, 0, ""). Other values that did not decode as T are kept.
func valueOrDefault[T any](f *Value[T], def T) Value[T] {
	if f == nil || isFalsy(f.Raw()) {
		return Value[T]{v: def}
	}
	return *f
}

func isFalsy(raw json.RawMessage) bool {
	switch string(raw) {
	case "false", "0", `""`:
		return true
	}
	return false
}

// unixSeconds is a wall-clock time as fractional unix seconds
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}
