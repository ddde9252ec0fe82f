package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
)

func catalogFixture() (*fakeServiceStore, *fakeDirectoryCache, *CatalogService) {
	services := &fakeServiceStore{}
	cache := &fakeDirectoryCache{}
	return services, cache, NewCatalogService(services, cache, testTracer, testLogger())
}

func TestCreateServiceProvidersOnly(t *testing.T) {
	_, _, svc := catalogFixture()

	client := &domain.Profile{ID: oid(2), Username: "happyclient", Role: domain.Client}
	_, err := svc.Create(context.Background(), client, &domain.Service{Name: "Gel nails"})
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestCreateServiceSetsOwnerAndInvalidatesCache(t *testing.T) {
	services, cache, svc := catalogFixture()

	provider := &domain.Profile{ID: oid(1), Username: "nailsbyana", Role: domain.Provider}
	saved, err := svc.Create(context.Background(), provider, &domain.Service{Name: "Gel nails", Price: f64(30)})
	require.NoError(t, err)
	assert.Equal(t, oid(1), saved.ProviderID)
	assert.Len(t, services.services, 1)
	assert.Equal(t, 1, cache.invalidations)
}

func TestCreateServiceRejectsDuplicateNameCaseInsensitive(t *testing.T) {
	_, _, svc := catalogFixture()

	provider := &domain.Profile{ID: oid(1), Username: "nailsbyana", Role: domain.Provider}
	_, err := svc.Create(context.Background(), provider, &domain.Service{Name: "Gel nails"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), provider, &domain.Service{Name: "GEL NAILS"})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestSameServiceNameAcrossProviders(t *testing.T) {
	_, _, svc := catalogFixture()

	first := &domain.Profile{ID: oid(1), Username: "nailsbyana", Role: domain.Provider}
	second := &domain.Profile{ID: oid(2), Username: "lashqueen", Role: domain.Provider}

	_, err := svc.Create(context.Background(), first, &domain.Service{Name: "Manicure"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), second, &domain.Service{Name: "Manicure"})
	assert.NoError(t, err)
}

func TestDeleteServiceOwnerOnly(t *testing.T) {
	services, cache, svc := catalogFixture()

	provider := &domain.Profile{ID: oid(1), Username: "nailsbyana", Role: domain.Provider}
	saved, err := svc.Create(context.Background(), provider, &domain.Service{Name: "Gel nails"})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), oid(2), saved.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	err = svc.Delete(context.Background(), oid(1), oid(99))
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, svc.Delete(context.Background(), oid(1), saved.ID))
	assert.Empty(t, services.services)
	assert.Equal(t, 2, cache.invalidations)
}
