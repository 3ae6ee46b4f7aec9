package auth

import (
	"testing"

	"agrolink/globals"

	"github.com/stretchr/testify/assert"
)

func TestValidRole(t *testing.T) {
	assert.True(t, validRole(globals.RoleBuyer))
	assert.True(t, validRole(globals.RoleFarmer))
	assert.True(t, validRole(globals.RoleSupplier))
	assert.False(t, validRole("admin"))
	assert.False(t, validRole(""))
	assert.False(t, validRole("Buyer"))
}
