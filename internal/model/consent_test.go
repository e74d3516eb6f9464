package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studentia/internal/apperr"
)

func TestConsentKeyValidate(t *testing.T) {
	cases := []struct {
		name    string
		key     ConsentKey
		wantErr string
	}{
		{"valid", NewConsentKey("s1", "Recruiters", "Portfolio"), ""},
		{"empty student", NewConsentKey("", "Recruiters", "Portfolio"), "studentId required"},
		{"empty receiver", NewConsentKey("s1", "", "Portfolio"), "receiverGroup required"},
		{"empty data group", NewConsentKey("s1", "Recruiters", ""), "dataGroup required"},
		{"separator in student", NewConsentKey("s:1", "Recruiters", "Portfolio"), "studentId must not contain"},
		{"separator in receiver", NewConsentKey("s1", "Recr:uiters", "Portfolio"), "receiverGroup must not contain"},
		{"separator in data group", NewConsentKey("s1", "Recruiters", "Port:folio"), "dataGroup must not contain"},
		{"at max length", NewConsentKey(strings.Repeat("s", MaxKeyLength-4), "R", "D"), ""},
		{"over max length", NewConsentKey(strings.Repeat("s", MaxKeyLength-3), "R", "D"), "max 64"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.key.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperr.ErrValidation)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestConsentKeyStringIsInjective(t *testing.T) {
	base := NewConsentKey("s1", "Recruiters", "Portfolio")
	assert.Equal(t, "s1:Recruiters:Portfolio", base.String())
	assert.Equal(t, []byte("s1:Recruiters:Portfolio"), base.BoxName())

	variants := []ConsentKey{
		NewConsentKey("s2", "Recruiters", "Portfolio"),
		NewConsentKey("s1", "College", "Portfolio"),
		NewConsentKey("s1", "Recruiters", "Academics"),
		NewConsentKey("Recruiters", "s1", "Portfolio"),
	}
	seen := map[string]bool{base.String(): true}
	for _, k := range variants {
		require.NoError(t, k.Validate())
		assert.False(t, seen[k.String()], "duplicate key %s", k)
		seen[k.String()] = true
	}

	// Only separator-free components pass validation, so distinct triples never collide
	a := NewConsentKey("s1:x", "y", "z")
	b := NewConsentKey("s1", "x:y", "z")
	assert.Equal(t, a.String(), b.String())
	assert.Error(t, a.Validate())
	assert.Error(t, b.Validate())
}

func TestNewConsentKeyTrims(t *testing.T) {
	k := NewConsentKey(" s1 ", "\tRecruiters", "Portfolio\n")
	assert.Equal(t, NewConsentKey("s1", "Recruiters", "Portfolio"), k)
	assert.Equal(t, "s1:Recruiters:Portfolio", k.String())
}
