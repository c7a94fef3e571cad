package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Address
		wantErr bool
	}{
		{name: "lowercase", input: "0x00000000000000000000000000000000000000aa", want: "0x00000000000000000000000000000000000000aa"},
		{name: "mixed case is canonicalized", input: "0xABCDEFabcdef0000000000000000000000000001", want: "0xabcdefabcdef0000000000000000000000000001"},
		{name: "uppercase prefix", input: "0X00000000000000000000000000000000000000aa", want: "0x00000000000000000000000000000000000000aa"},
		{name: "surrounding space", input: "  0x00000000000000000000000000000000000000aa ", want: "0x00000000000000000000000000000000000000aa"},
		{name: "empty", input: "", wantErr: true},
		{name: "too short", input: "0x1234", wantErr: true},
		{name: "no prefix", input: "0000000000000000000000000000000000000000aa", wantErr: true},
		{name: "not hex", input: "0x00000000000000000000000000000000000000zz", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, HasCode(err, CodeValidation))
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddressBytesRoundTrip(t *testing.T) {
	t.Parallel()

	a := MustParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	assert.Len(t, a.Bytes(), 20)
	assert.Equal(t, a, AddressFromBytes(a.Bytes()))
	assert.Equal(t, make([]byte, 20), ZeroAddress.Bytes())
	assert.Panics(t, func() { MustParseAddress("nope") })
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	base := errors.New("disk full")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: base, want: CodeInternal},
		{name: "app error", err: NewUnknownTribeError(4), want: CodeUnknownTribe},
		{name: "wrapped app error", err: fmt.Errorf("join: %w", NewJoinDeniedError("banned")), want: CodeJoinDenied},
		{name: "internal", err: NewInternalError(base), want: CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}

	internal := NewInternalError(base)
	assert.ErrorIs(t, internal, base)
	assert.Equal(t, "Internal server error: disk full", internal.Error())
	assert.False(t, HasCode(base, CodeInternal))
}

func TestRoleValid(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleDefaultAdmin.Valid())
	assert.True(t, RoleFan.Valid())
	assert.False(t, Role("SUPERUSER").Valid())
	assert.True(t, JoinPolicyInviteOnly.Valid())
	assert.False(t, JoinPolicy("OPEN").Valid())
}
