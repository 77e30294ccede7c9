package consent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"design-gallery-backend/internal/consent"
)

func TestParsePreference(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    consent.Preference
		legacy  bool
		wantErr bool
	}{
		{name: "structured", raw: `{"analytics":true,"marketing":false}`, want: consent.Preference{Analytics: true}},
		{name: "partial object", raw: `{"analytics":false}`, want: consent.Preference{}},
		{name: "legacy accepted", raw: "accepted", want: consent.Preference{Analytics: true}, legacy: true},
		{name: "legacy rejected", raw: "rejected", want: consent.Preference{}, legacy: true},
		{name: "quoted legacy", raw: `"accepted"`, want: consent.Preference{Analytics: true}, legacy: true},
		{name: "garbage", raw: "maybe", wantErr: true},
		{name: "json null", raw: "null", wantErr: true},
		{name: "wrong types", raw: `{"analytics":"yes"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, legacy, err := consent.ParsePreference(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, consent.ErrUnrecognized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.legacy, legacy)
		})
	}
}

func TestLoadPreference_Absent(t *testing.T) {
	pref, err := consent.LoadPreference(consent.NewMemoryStore())
	require.NoError(t, err)
	assert.Nil(t, pref)
}

func TestLoadPreference_MigratesLegacyOnce(t *testing.T) {
	store := consent.NewMemoryStore()
	require.NoError(t, store.Set(consent.StorageKey, "accepted"))

	pref, err := consent.LoadPreference(store)
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.Equal(t, consent.Preference{Analytics: true, Marketing: false}, *pref)

	raw, ok, _ := store.Get(consent.StorageKey)
	require.True(t, ok)
	assert.JSONEq(t, `{"analytics":true,"marketing":false}`, raw)
}

func TestLoadPreference_UnrecognizedIsUndecided(t *testing.T) {
	store := consent.NewMemoryStore()
	require.NoError(t, store.Set(consent.StorageKey, "sure"))

	pref, err := consent.LoadPreference(store)
	require.NoError(t, err)
	assert.Nil(t, pref)

	raw, _, _ := store.Get(consent.StorageKey)
	assert.Equal(t, "sure", raw)
}

func TestPreferenceStatus(t *testing.T) {
	var none *consent.Preference
	assert.Equal(t, "Not set", none.Status())
	assert.Equal(t, "Accepted", (&consent.Preference{Analytics: true}).Status())
	assert.Equal(t, "Rejected", (&consent.Preference{}).Status())
}
