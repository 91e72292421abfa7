// Package token packs a planned outing (where and when) into an opaque,
// URL-safe string so it can be shared as a link.
package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNotFound is returned for any token that does not decode to a valid plan.
var ErrNotFound = errors.New("plan not found")

// Plan is the payload carried by a token.
type Plan struct {
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon     float64 `json:"lon" validate:"gte=-180,lte=180"`
	PlaceID string  `json:"placeId" validate:"max=256"`
	Date    string  `json:"date" validate:"required,datetime=2006-01-02"`
}

// Encode returns the token for p: base64url (unpadded) of the JSON array
// [lat, lon, placeId, date]. It fails only for non-finite coordinates.
func Encode(p Plan) (string, error) {
	data, err := json.Marshal([]any{p.Lat, p.Lon, p.PlaceID, p.Date})
	if err != nil {
		return "", fmt.Errorf("encode plan: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses a token produced by Encode. Anything malformed, including a
// payload of the wrong shape or types, yields ErrNotFound.
func Decode(s string) (Plan, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Plan{}, ErrNotFound
	}

	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || len(fields) != 4 {
		return Plan{}, ErrNotFound
	}

	var p Plan
	if !decodeStrict(fields[0], &p.Lat) ||
		!decodeStrict(fields[1], &p.Lon) ||
		!decodeStrict(fields[2], &p.PlaceID) ||
		!decodeStrict(fields[3], &p.Date) {
		return Plan{}, ErrNotFound
	}

	if math.Abs(p.Lat) > 90 || math.Abs(p.Lon) > 180 {
		return Plan{}, ErrNotFound
	}
	if _, err := time.Parse("2006-01-02", p.Date); err != nil {
		return Plan{}, ErrNotFound
	}
	return p, nil
}

// decodeStrict unmarshals raw into v, rejecting null so a missing element
// cannot pass as a zero value.
func decodeStrict(raw json.RawMessage, v any) bool {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
