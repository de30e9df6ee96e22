package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/grooming-platform/internal/pets"
)

func TestCatalogLookupsAreCaseInsensitive(t *testing.T) {
	cat := NewInMemoryCatalog()
	ctx := context.Background()

	bath := cat.AddService("Full Groom")
	cat.AddAddon("Nail Trim", 1500)
	cat.SetPrice(bath.ID, pets.SizeSmall, 4500)

	svc, err := cat.ServiceByName(ctx, "full groom")
	require.NoError(t, err)
	assert.Equal(t, bath.ID, svc.ID)

	addon, err := cat.AddonByName(ctx, "NAIL TRIM")
	require.NoError(t, err)
	assert.Equal(t, 1500, addon.PriceCents)

	cents, err := cat.Price(ctx, bath.ID, pets.SizeSmall)
	require.NoError(t, err)
	assert.Equal(t, 4500, cents)
}

func TestCatalogNotFound(t *testing.T) {
	cat := NewInMemoryCatalog()
	ctx := context.Background()

	_, err := cat.ServiceByName(ctx, "mystery")
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = cat.AddonByName(ctx, "mystery")
	assert.ErrorIs(t, err, ErrAddonNotFound)

	svc := cat.AddService("Bath")
	_, err = cat.Price(ctx, svc.ID, pets.SizeXLarge)
	assert.ErrorIs(t, err, ErrPriceNotFound)
}
