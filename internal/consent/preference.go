// Package consent models the visitor's cookie consent: the persisted
// preference, its legacy string form, and the banner/dialog state machine
// that drives the analytics integration.
package consent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// StorageKey is the storage slot holding the preference.
const StorageKey = "cookie_consent"

// Legacy values written before the structured form existed.
const (
	LegacyAccepted = "accepted"
	LegacyRejected = "rejected"
)

// ErrUnrecognized is returned for values that are neither a JSON object nor a
// legacy string.
var ErrUnrecognized = errors.New("unrecognized consent value")

type Preference struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
}

// Status is the short label shown next to the preference in the dialog.
func (p *Preference) Status() string {
	switch {
	case p == nil:
		return "Not set"
	case p.Analytics:
		return "Accepted"
	default:
		return "Rejected"
	}
}

func (p Preference) Encode() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// ParsePreference decodes a stored or submitted value. legacy is true when
// the value was one of the bare legacy strings, with or without JSON quotes.
func ParsePreference(raw string) (pref Preference, legacy bool, err error) {
	trimmed := strings.TrimSpace(raw)

	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
		trimmed = s
	}
	switch trimmed {
	case LegacyAccepted:
		return Preference{Analytics: true}, true, nil
	case LegacyRejected:
		return Preference{}, true, nil
	}

	if !strings.HasPrefix(trimmed, "{") {
		return Preference{}, false, fmt.Errorf("%w: %q", ErrUnrecognized, raw)
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	if err := dec.Decode(&pref); err != nil {
		return Preference{}, false, fmt.Errorf("%w: %v", ErrUnrecognized, err)
	}
	return pref, false, nil
}

// LoadPreference reads the stored preference. It returns nil when nothing is
// stored or the value is unrecognized. A legacy value is rewritten in the
// structured form before returning, so migration happens at most once.
func LoadPreference(store Store) (*Preference, error) {
	raw, ok, err := store.Get(StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read consent preference: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	pref, legacy, err := ParsePreference(raw)
	if err != nil {
		return nil, nil
	}
	if legacy {
		if err := SavePreference(store, pref); err != nil {
			return nil, fmt.Errorf("failed to migrate legacy consent value: %w", err)
		}
	}
	return &pref, nil
}

func SavePreference(store Store, pref Preference) error {
	if err := store.Set(StorageKey, pref.Encode()); err != nil {
		return fmt.Errorf("failed to save consent preference: %w", err)
	}
	return nil
}
