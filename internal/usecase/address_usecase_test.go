package usecase_test

import (
	"context"
	"testing"

	"merkado/internal/domain/model"
	"merkado/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addrReq(name string) usecase.AddressCreateRequest {
	return usecase.AddressCreateRequest{
		Name:      name,
		Address:   "Blk 4 Lot 2, Malabon",
		Contact:   "09170000000",
		Latitude:  f64(14.66),
		Longitude: f64(120.95),
	}
}

func TestAddress_FirstIsDefault(t *testing.T) {
	db := newMemDB()
	u := db.addUser(model.RoleBuyer)
	uc := usecase.NewAddressUsecase(&memAddresses{db}, fixedClock{mondayMorning})

	first, err := uc.Create(context.Background(), u.ID, addrReq("Home"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := uc.Create(context.Background(), u.ID, addrReq("Office"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	require.NoError(t, uc.SetDefault(context.Background(), u.ID, second.ID))
	list, err := uc.List(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.False(t, list[1].IsDefault)

	// デフォルトを消すと残った住所が繰り上がる
	require.NoError(t, uc.Delete(context.Background(), u.ID, second.ID))
	list, err = uc.List(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
}

func TestAddress_OwnershipAndValidation(t *testing.T) {
	db := newMemDB()
	owner := db.addUser(model.RoleBuyer)
	other := db.addUser(model.RoleBuyer)
	uc := usecase.NewAddressUsecase(&memAddresses{db}, fixedClock{mondayMorning})

	a, err := uc.Create(context.Background(), owner.ID, addrReq("Home"))
	require.NoError(t, err)

	_, err = uc.Update(context.Background(), other.ID, a.ID, addrReq("Mine now"))
	assert.ErrorIs(t, err, usecase.ErrForbidden)
	assert.ErrorIs(t, uc.Delete(context.Background(), other.ID, a.ID), usecase.ErrForbidden)
	assert.ErrorIs(t, uc.SetDefault(context.Background(), owner.ID, 999), usecase.ErrNotFound)

	bad := addrReq("Home")
	bad.Latitude = f64(120)
	_, err = uc.Create(context.Background(), owner.ID, bad)
	assert.ErrorIs(t, err, usecase.ErrValidation)

	updated, err := uc.Update(context.Background(), owner.ID, a.ID, addrReq("Home (new)"))
	require.NoError(t, err)
	assert.Equal(t, "Home (new)", updated.Name)
	assert.True(t, updated.IsDefault)

	require.NoError(t, uc.Delete(context.Background(), owner.ID, a.ID))
	list, err := uc.List(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
