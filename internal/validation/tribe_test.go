package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "case folded", in: "Night Owls", want: "night owls"},
		{name: "whitespace collapsed", in: "  night \t  owls ", want: "night owls"},
		{name: "fullwidth compatibility form", in: "ＮＩＧＨＴ owls", want: "night owls"},
		{name: "sharp s folds", in: "Straße", want: "strasse"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeName(tc.in))
		})
	}

	assert.Equal(t, NormalizeName("Night Owls"), NormalizeName("NIGHT   OWLS"))
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{name: "plain", in: "Night Owls", ok: true},
		{name: "ampersand allowed", in: "Cats & Dogs", ok: true},
		{name: "empty", in: "   ", ok: false},
		{name: "too long", in: strings.Repeat("a", MaxNameLength+1), ok: false},
		{name: "markup", in: "<b>Owls</b>", ok: false},
		{name: "script", in: "owls<script>alert(1)</script>", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateName(tc.in)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateMetadata(""))
	assert.NoError(t, ValidateMetadata("ipfs://bafy/meta.json?v=1&lang=en"))
	assert.Error(t, ValidateMetadata(`<img src=x onerror="alert(1)">`))
	assert.Error(t, ValidateMetadata(strings.Repeat("x", MaxMetadataLength+1)))
}

func TestValidateSymbolAndAction(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateSymbol("TRB"))
	assert.Error(t, ValidateSymbol("trb"))
	assert.Error(t, ValidateSymbol(""))
	assert.NoError(t, ValidateActionID("post.created"))
	assert.Error(t, ValidateActionID("Post Created"))
	assert.NoError(t, ValidateLabel("Karma"))
	assert.Error(t, ValidateLabel(""))
}
