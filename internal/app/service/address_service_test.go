package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressService_FirstAddressIsDefault(t *testing.T) {
	env := setupEnv(t)

	first := env.address(t, testUser)
	second := env.address(t, testUser)
	assert.True(t, first.IsDefault)
	assert.False(t, second.IsDefault)
	assert.Equal(t, "IN", first.Country)

	require.NoError(t, env.addresses.SetDefaultAddress(testUser, second.ID))
	addresses, err := env.addresses.GetUserAddresses(testUser)
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	for _, a := range addresses {
		assert.Equal(t, a.ID == second.ID, a.IsDefault)
	}
}

func TestAddressService_OwnerOnly(t *testing.T) {
	env := setupEnv(t)
	a := env.address(t, testUser)

	_, err := env.addresses.GetAddress("user-2", a.ID)
	assert.ErrorIs(t, err, ErrAddressNotFound)
	assert.ErrorIs(t, env.addresses.SetDefaultAddress("user-2", a.ID), ErrAddressNotFound)
	assert.ErrorIs(t, env.addresses.DeleteAddress("user-2", a.ID), ErrAddressNotFound)

	require.NoError(t, env.addresses.DeleteAddress(testUser, a.ID))
	_, err = env.addresses.GetAddress(testUser, a.ID)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}
