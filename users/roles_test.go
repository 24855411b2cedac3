package users_test

import (
	"testing"

	"github.com/agrinos/plantclassifier/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleMapping(t *testing.T) {
	for _, r := range users.Roles() {
		t.Run(string(r), func(t *testing.T) {
			d := r.Display()
			require.True(t, d.Valid())
			assert.Equal(t, r, d.Role())
		})
	}

	assert.False(t, users.Role("GARDENER").Valid())
	assert.Equal(t, users.DisplayRole(""), users.Role("GARDENER").Display())
	assert.Equal(t, users.Role(""), users.DisplayRole("gardener").Role())
}

func TestParseDisplayRole(t *testing.T) {
	tests := []struct {
		in   string
		want users.DisplayRole
	}{
		{"farmer", users.DisplayFarmer},
		{" Pharmaceutical ", users.DisplayPharmaceutical},
		{"AGRICULTURAL_INDUSTRY", users.DisplayAgricultural},
		{"admin", users.DisplayAdmin},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := users.ParseDisplayRole(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := users.ParseDisplayRole("gardener")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid options")
}

func TestNamesAndEmails(t *testing.T) {
	assert.Equal(t, "ada@example.com", users.NormalizeEmail("  Ada@Example.COM "))
	assert.Equal(t, "ada", users.DefaultName("ada@example.com"))
	assert.Equal(t, "@example.com", users.DefaultName("@example.com"))
}
