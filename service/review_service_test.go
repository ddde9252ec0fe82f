package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
)

func reviewFixture() (*fakeReviewStore, *fakeProfileStore, *ReviewService) {
	profiles := &fakeProfileStore{profiles: []*domain.Profile{
		{ID: oid(1), Username: "nailsbyana", Role: domain.Provider},
		{ID: oid(2), Username: "happyclient", Role: domain.Client},
		{ID: oid(3), Username: "otherclient", Role: domain.Client},
	}}
	reviews := &fakeReviewStore{}
	return reviews, profiles, NewReviewService(reviews, profiles, testTracer, testLogger())
}

func TestCreateReviewRejectsSelfReview(t *testing.T) {
	_, _, svc := reviewFixture()

	_, err := svc.Create(context.Background(), &domain.Review{
		ClientID: oid(1), ProviderID: oid(1), Rating: 5,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidOperation)
}

func TestCreateReviewUnknownProvider(t *testing.T) {
	_, _, svc := reviewFixture()

	_, err := svc.Create(context.Background(), &domain.Review{
		ClientID: oid(2), ProviderID: oid(99), Rating: 5,
	})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateReviewRejectsDuplicate(t *testing.T) {
	_, _, svc := reviewFixture()

	_, err := svc.Create(context.Background(), &domain.Review{ClientID: oid(2), ProviderID: oid(1), Rating: 5})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &domain.Review{ClientID: oid(2), ProviderID: oid(1), Rating: 1})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestCreateReviewRecomputesProviderRating(t *testing.T) {
	_, profiles, svc := reviewFixture()

	_, err := svc.Create(context.Background(), &domain.Review{ClientID: oid(2), ProviderID: oid(1), Rating: 5})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &domain.Review{ClientID: oid(3), ProviderID: oid(1), Rating: 2})
	require.NoError(t, err)

	provider, err := profiles.Get(context.Background(), oid(1))
	require.NoError(t, err)
	require.NotNil(t, provider.Rating)
	assert.Equal(t, 3.5, *provider.Rating)
	assert.Equal(t, 2, provider.ReviewCount)
}

func TestHasReviewed(t *testing.T) {
	_, _, svc := reviewFixture()

	check, err := svc.HasReviewed(context.Background(), oid(2), oid(1))
	require.NoError(t, err)
	assert.False(t, check.HasReviewed)
	assert.Nil(t, check.ReviewID)

	saved, err := svc.Create(context.Background(), &domain.Review{ClientID: oid(2), ProviderID: oid(1), Rating: 4})
	require.NoError(t, err)

	check, err = svc.HasReviewed(context.Background(), oid(2), oid(1))
	require.NoError(t, err)
	assert.True(t, check.HasReviewed)
	require.NotNil(t, check.ReviewID)
	assert.Equal(t, saved.ID, *check.ReviewID)
}

func TestDeleteReviewAuthorOnly(t *testing.T) {
	_, _, svc := reviewFixture()

	saved, err := svc.Create(context.Background(), &domain.Review{ClientID: oid(2), ProviderID: oid(1), Rating: 4})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), oid(3), saved.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	err = svc.Delete(context.Background(), oid(2), oid(99))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteLastReviewClearsRating(t *testing.T) {
	_, profiles, svc := reviewFixture()

	saved, err := svc.Create(context.Background(), &domain.Review{ClientID: oid(2), ProviderID: oid(1), Rating: 4})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), oid(2), saved.ID))

	provider, err := profiles.Get(context.Background(), oid(1))
	require.NoError(t, err)
	assert.Nil(t, provider.Rating)
	assert.Zero(t, provider.ReviewCount)
}
