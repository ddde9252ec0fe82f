package application

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
)

type ReviewService struct {
	reviews  domain.ReviewStore
	profiles domain.ProfileStore
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewReviewService(reviews domain.ReviewStore, profiles domain.ProfileStore, tracer trace.Tracer, logger *logrus.Logger) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		profiles: profiles,
		tracer:   tracer,
		logger:   logger,
	}
}

// ReviewCheck tells a caller whether they already reviewed a provider, so
// client flows can disable re-submission without side effects.
type ReviewCheck struct {
	HasReviewed bool                `json:"hasReviewed"`
	ReviewID    *primitive.ObjectID `json:"reviewId,omitempty"`
}

func (service *ReviewService) HasReviewed(ctx context.Context, clientID, providerID primitive.ObjectID) (*ReviewCheck, error) {
	ctx, span := service.tracer.Start(ctx, "ReviewService.HasReviewed")
	defer span.End()

	review, err := service.reviews.GetByClientAndProvider(ctx, clientID, providerID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return &ReviewCheck{HasReviewed: false}, nil
	}
	return &ReviewCheck{HasReviewed: true, ReviewID: &review.ID}, nil
}

// Create persists a review and refreshes the provider's derived rating.
// Self-reviews are rejected outright; the unique (clientId, providerId)
// index settles concurrent duplicates, the lookup here just gives the
// friendlier message.
func (service *ReviewService) Create(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	ctx, span := service.tracer.Start(ctx, "ReviewService.Create")
	defer span.End()

	if review.ClientID == review.ProviderID {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidOperation, errs.SelfReviewNotAllowed)
	}

	provider, err := service.profiles.Get(ctx, review.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, errs.ProfileNotFound)
	}

	existing, err := service.reviews.GetByClientAndProvider(ctx, review.ClientID, review.ProviderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrConflict, errs.ReviewExists)
	}

	saved, err := service.reviews.Create(ctx, review)
	if err != nil {
		return nil, err
	}

	if err := recomputeProviderRating(ctx, service.reviews, service.profiles, review.ProviderID); err != nil {
		service.logger.Warnf("recompute rating for %s: %s", review.ProviderID.Hex(), err)
	}

	return saved, nil
}

// Delete removes a review; only its author may do so. Reviews are immutable,
// deletion is the only mutation.
func (service *ReviewService) Delete(ctx context.Context, requesterID, reviewID primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "ReviewService.Delete")
	defer span.End()

	review, err := service.reviews.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return fmt.Errorf("%w: review not found", errs.ErrNotFound)
	}
	if review.ClientID != requesterID {
		return fmt.Errorf("%w: only the author can delete a review", errs.ErrForbidden)
	}

	if err := service.reviews.Delete(ctx, reviewID); err != nil {
		return err
	}

	if err := recomputeProviderRating(ctx, service.reviews, service.profiles, review.ProviderID); err != nil {
		service.logger.Warnf("recompute rating for %s: %s", review.ProviderID.Hex(), err)
	}
	return nil
}
