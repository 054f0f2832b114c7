package kdlindex

import (
	"encoding/base64"
	"time"

	"github.com/gofrs/uuid"
)

// guidFormLength is the byte length of the only GUID textual form this
// package accepts: "D" format, 32 hex digits plus four hyphens (spec §9
// Open Questions: other .NET GUID format specifiers are out of scope).
const guidFormLength = 36

// TryGetGUID decodes a String element holding a 36-character "D"-format
// GUID (8-4-4-4-12 hex digits). Any other length or shape reports false,
// not an error.
func (e Element) TryGetGUID() (uuid.UUID, bool, error) {
	s, err := e.GetString()
	if err != nil {
		return uuid.UUID{}, false, err
	}
	if len(s) != guidFormLength {
		return uuid.UUID{}, false, nil
	}
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.UUID{}, false, nil
	}
	return id, true, nil
}

// rfc3339MinLength is the byte length of the shortest RFC 3339 timestamp
// ("2006-01-02T15:04:05Z"); shorter strings fail before time.Parse runs.
const rfc3339MinLength = len("2006-01-02T15:04:05Z")

// TryGetDateTime decodes a String element holding an RFC 3339 timestamp.
func (e Element) TryGetDateTime() (time.Time, bool, error) {
	s, err := e.GetString()
	if err != nil {
		return time.Time{}, false, err
	}
	if len(s) < rfc3339MinLength {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// TryGetDateTimeOffset decodes a String element as an RFC 3339 timestamp,
// preserving its original UTC offset. It returns exactly what
// TryGetDateTime returns; both keep the offset written in the text.
func (e Element) TryGetDateTimeOffset() (time.Time, bool, error) {
	return e.TryGetDateTime()
}

// TryGetBase64 decodes a String element holding standard base64 (spec §12:
// a binary-payload accessor layered on top of the string token).
func (e Element) TryGetBase64() ([]byte, bool, error) {
	s, err := e.GetString()
	if err != nil {
		return nil, false, err
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false, nil
	}
	return b, true, nil
}
