package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// knownFields are the top-level wire keys decoded into Snapshot fields.
// Every other key ends up in Snapshot.Extensions.
var knownFields = map[string]bool{
	"v":         true,
	"id":        true,
	"position":  true,
	"direction": true,
	"graphic":   true,
	"speed":     true,
	"type":      true,
	"ownerId":   true,
	"fixed":     true,
	"hitbox":    true,
}

// ErrMalformedFrame is returned by DecodeFrame for input that is not JSON.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is one broadcast tick: the snapshots of every entity on a map.
type Frame struct {
	Tick     uint64     `json:"tick"`
	Map      string     `json:"map"`
	Entities []Snapshot `json:"entities"`
}

// Decode parses a single snapshot from its wire form.
func Decode(data []byte) (Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return Snapshot{}, fmt.Errorf("%w: malformed json", ErrInvalidSnapshot)
	}
	return decodeResult(gjson.ParseBytes(data))
}

func decodeResult(r gjson.Result) (Snapshot, error) {
	if !r.IsObject() {
		return Snapshot{}, fmt.Errorf("%w: expected object", ErrInvalidSnapshot)
	}

	s := Snapshot{Version: Version}
	if v := r.Get("v"); v.Exists() {
		s.Version = int(v.Int())
	}

	pos := r.Get("position")
	if !pos.IsObject() {
		return Snapshot{}, fmt.Errorf("%w: missing position", ErrInvalidSnapshot)
	}
	for _, axis := range []string{"x", "y"} {
		if f := pos.Get(axis); f.Type != gjson.Number {
			return Snapshot{}, fmt.Errorf("%w: missing position.%s", ErrInvalidSnapshot, axis)
		}
	}
	s.Position = Position{
		X: pos.Get("x").Float(),
		Y: pos.Get("y").Float(),
		Z: pos.Get("z").Float(),
	}

	s.ID = r.Get("id").String()
	s.Direction = Direction(r.Get("direction").Int())
	s.Graphic = r.Get("graphic").String()
	s.Speed = r.Get("speed").Float()
	s.Type = EntityType(r.Get("type").String())
	s.OwnerID = r.Get("ownerId").String()
	s.Fixed = r.Get("fixed").Bool()
	if hb := r.Get("hitbox"); hb.IsObject() {
		s.Hitbox = &Hitbox{W: hb.Get("w").Float(), H: hb.Get("h").Float()}
	}

	r.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if knownFields[k] {
			return true
		}
		if s.Extensions == nil {
			s.Extensions = make(map[string]json.RawMessage)
		}
		s.Extensions[k] = json.RawMessage(value.Raw)
		return true
	})

	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Encode writes s in its wire form, merging Extensions back in as top-level
// keys. Extensions never override known fields.
func Encode(s Snapshot) ([]byte, error) {
	if s.Version == 0 {
		s.Version = Version
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	for _, k := range slices.Sorted(maps.Keys(s.Extensions)) {
		if knownFields[k] {
			continue
		}
		raw := s.Extensions[k]
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: extension %q is not valid json", ErrInvalidSnapshot, k)
		}
		data, err = sjson.SetRawBytes(data, escapeKey(k), raw)
		if err != nil {
			return nil, fmt.Errorf("set extension %q: %w", k, err)
		}
	}
	return data, nil
}

// EncodeFrame writes a frame with every entity encoded via Encode.
func EncodeFrame(f Frame) ([]byte, error) {
	data := []byte(`{"tick":0,"map":"","entities":[]}`)
	var err error
	if data, err = sjson.SetBytes(data, "tick", f.Tick); err != nil {
		return nil, fmt.Errorf("set tick: %w", err)
	}
	if data, err = sjson.SetBytes(data, "map", f.Map); err != nil {
		return nil, fmt.Errorf("set map: %w", err)
	}
	for _, e := range f.Entities {
		raw, err := Encode(e)
		if err != nil {
			return nil, fmt.Errorf("encode entity %q: %w", e.ID, err)
		}
		if data, err = sjson.SetRawBytes(data, "entities.-1", raw); err != nil {
			return nil, fmt.Errorf("append entity %q: %w", e.ID, err)
		}
	}
	return data, nil
}

// DecodeFrame parses a frame. Entities that fail to decode are dropped and
// reported in the returned error; the rest of the frame is still usable.
func DecodeFrame(data []byte) (Frame, error) {
	if !gjson.ValidBytes(data) {
		return Frame{}, ErrMalformedFrame
	}
	root := gjson.ParseBytes(data)
	f := Frame{
		Tick: root.Get("tick").Uint(),
		Map:  root.Get("map").String(),
	}

	var errs []error
	idx := 0
	root.Get("entities").ForEach(func(_, value gjson.Result) bool {
		s, err := decodeResult(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("entity %d: %w", idx, err))
		} else {
			f.Entities = append(f.Entities, s)
		}
		idx++
		return true
	})
	return f, errors.Join(errs...)
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`:`, `\:`,
)

// escapeKey makes an arbitrary object key safe to use as an sjson path.
func escapeKey(k string) string {
	return pathEscaper.Replace(k)
}
