package staff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoleCanonical(t *testing.T) {
	cases := map[string]Role{
		"Administrador": RoleAdmin,
		"Operador":      RoleOperator,
		"Visualizador":  RoleViewer,
	}

	for in, want := range cases {
		got, ok := ParseRole(in)
		assert.True(t, ok, "input=%s", in)
		assert.Equal(t, want, got)
	}
}

func TestParseRoleLegacyAliases(t *testing.T) {
	cases := map[string]Role{
		"ADMIN":    RoleAdmin,
		"admin":    RoleAdmin,
		"OPERATOR": RoleOperator,
		"VIEWER":   RoleViewer,
		" viewer ": RoleViewer,
	}

	for in, want := range cases {
		got, ok := ParseRole(in)
		assert.True(t, ok, "input=%s", in)
		assert.Equal(t, want, got)
	}
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "root", "Gerente", "super"} {
		_, ok := ParseRole(in)
		assert.False(t, ok, "input=%s", in)
	}
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, RoleAdmin.IsAdmin())
	assert.False(t, RoleOperator.IsAdmin())
	assert.False(t, RoleViewer.IsAdmin())
}
