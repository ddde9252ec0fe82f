package application

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
)

const usernameCooldownDays = 7

type ProfileService struct {
	profiles      domain.ProfileStore
	services      domain.ServiceStore
	reviews       domain.ReviewStore
	messages      domain.MessageStore
	notifications domain.NotificationStore
	cache         domain.DirectoryCache
	tracer        trace.Tracer
	logger        *logrus.Logger
}

func NewProfileService(
	profiles domain.ProfileStore,
	services domain.ServiceStore,
	reviews domain.ReviewStore,
	messages domain.MessageStore,
	notifications domain.NotificationStore,
	cache domain.DirectoryCache,
	tracer trace.Tracer,
	logger *logrus.Logger,
) *ProfileService {
	return &ProfileService{
		profiles:      profiles,
		services:      services,
		reviews:       reviews,
		messages:      messages,
		notifications: notifications,
		cache:         cache,
		tracer:        tracer,
		logger:        logger,
	}
}

func (service *ProfileService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	ctx, span := service.tracer.Start(ctx, "ProfileService.Get")
	defer span.End()

	profile, err := service.profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, errs.ProfileNotFound)
	}
	return profile, nil
}

// GetByExternalID resolves the caller's own profile from the identity
// provider's subject id.
func (service *ProfileService) GetByExternalID(ctx context.Context, externalID string) (*domain.Profile, error) {
	ctx, span := service.tracer.Start(ctx, "ProfileService.GetByExternalID")
	defer span.End()

	profile, err := service.profiles.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, errs.ProfileNotFound)
	}
	return profile, nil
}

// GetDetails returns the public profile page shape: the profile with its
// services and reviews embedded.
func (service *ProfileService) GetDetails(ctx context.Context, id primitive.ObjectID) (*domain.ProfileDetails, error) {
	ctx, span := service.tracer.Start(ctx, "ProfileService.GetDetails")
	defer span.End()

	profile, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	services, err := service.services.GetByProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := service.reviews.GetByProvider(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.ProfileDetails{
		Profile:  profile,
		Services: services,
		Reviews:  reviews,
	}, nil
}

// Create onboards the first (and only) profile for an identity. The unique
// indexes on externalId and username are the authoritative guard; the
// lookups ahead of the insert only produce friendlier errors.
func (service *ProfileService) Create(ctx context.Context, externalID string, profile *domain.Profile) (*domain.Profile, error) {
	ctx, span := service.tracer.Start(ctx, "ProfileService.Create")
	defer span.End()

	existing, err := service.profiles.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrConflict, errs.ProfileExists)
	}

	taken, err := service.profiles.GetByUsername(ctx, profile.Username)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrConflict, errs.UsernameExists)
	}

	profile.ExternalID = externalID
	profile.IsAdmin = false
	profile.Rating = nil
	profile.ReviewCount = 0
	profile.UsernameChangedAt = nil

	saved, err := service.profiles.Create(ctx, profile)
	if err != nil {
		return nil, err
	}

	service.invalidateDirectory(ctx)
	return saved, nil
}

func (service *ProfileService) Update(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	ctx, span := service.tracer.Start(ctx, "ProfileService.Update")
	defer span.End()

	if err := service.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}

	service.invalidateDirectory(ctx)
	return profile, nil
}

// CheckUsername reports whether the username is free, case-insensitively.
func (service *ProfileService) CheckUsername(ctx context.Context, username string) (bool, error) {
	ctx, span := service.tracer.Start(ctx, "ProfileService.CheckUsername")
	defer span.End()

	existing, err := service.profiles.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return existing == nil, nil
}

// ChangeUsername applies the per-profile cooldown: a no-op rename never
// consumes it, a rename within seven days of the last one is rate limited,
// and the remaining wait is reported in whole days rounded up.
func (service *ProfileService) ChangeUsername(ctx context.Context, profileID primitive.ObjectID, username string) error {
	ctx, span := service.tracer.Start(ctx, "ProfileService.ChangeUsername")
	defer span.End()

	profile, err := service.Get(ctx, profileID)
	if err != nil {
		return err
	}

	if profile.Username == username {
		return nil
	}

	if profile.UsernameChangedAt != nil {
		elapsedDays := time.Since(*profile.UsernameChangedAt).Hours() / 24
		if elapsedDays < usernameCooldownDays {
			daysLeft := int(math.Ceil(usernameCooldownDays - elapsedDays))
			return &errs.RateLimitedError{DaysLeft: daysLeft}
		}
	}

	taken, err := service.profiles.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if taken != nil && taken.ID != profile.ID {
		return fmt.Errorf("%w: %s", errs.ErrConflict, errs.UsernameExists)
	}

	if err := service.profiles.UpdateUsername(ctx, profileID, username); err != nil {
		return err
	}

	service.invalidateDirectory(ctx)
	return nil
}

// Delete removes the profile and everything hanging off it: services,
// reviews written and received, messages sent and received, notifications.
// Admin profiles are never deletable.
func (service *ProfileService) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "ProfileService.Delete")
	defer span.End()

	profile, err := service.Get(ctx, id)
	if err != nil {
		return err
	}
	if profile.IsAdmin {
		return fmt.Errorf("%w: %s", errs.ErrInvalidOperation, errs.AdminNotDeletable)
	}

	// Reviews written by this profile change other providers' derived
	// ratings, so remember who to recompute before deleting.
	written, err := service.reviews.GetByClient(ctx, id)
	if err != nil {
		return err
	}

	if err := service.services.DeleteByProvider(ctx, id); err != nil {
		return err
	}
	if err := service.reviews.DeleteByClient(ctx, id); err != nil {
		return err
	}
	if err := service.reviews.DeleteByProvider(ctx, id); err != nil {
		return err
	}
	if err := service.messages.DeleteByParticipant(ctx, id); err != nil {
		return err
	}
	if err := service.notifications.DeleteByProfile(ctx, id); err != nil {
		return err
	}
	if err := service.profiles.Delete(ctx, id); err != nil {
		return err
	}

	seen := map[primitive.ObjectID]bool{}
	for _, review := range written {
		if seen[review.ProviderID] || review.ProviderID == id {
			continue
		}
		seen[review.ProviderID] = true
		if err := recomputeProviderRating(ctx, service.reviews, service.profiles, review.ProviderID); err != nil {
			service.logger.Warnf("recompute rating for %s after cascade: %s", review.ProviderID.Hex(), err)
		}
	}

	service.invalidateDirectory(ctx)
	return nil
}

// Search filters and orders the directory. All filter fields are optional;
// fields combine with AND, values inside a field with OR. The completely
// empty filter is the suggestion-index listing and is served from the cache
// when warm.
func (service *ProfileService) Search(ctx context.Context, filter *domain.SearchFilter) ([]*domain.ProfileWithServices, error) {
	ctx, span := service.tracer.Start(ctx, "ProfileService.Search")
	defer span.End()

	if filter.IsEmpty() && service.cache != nil {
		cached, err := service.cache.Get(ctx)
		if err != nil {
			service.logger.Warnf("directory cache read: %s", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	profiles, err := service.profiles.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	allServices, err := service.services.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	servicesByProvider := map[primitive.ObjectID][]*domain.Service{}
	for _, svc := range allServices {
		servicesByProvider[svc.ProviderID] = append(servicesByProvider[svc.ProviderID], svc)
	}

	listings := make([]*domain.ProfileWithServices, 0, len(profiles))
	for _, profile := range profiles {
		listing := &domain.ProfileWithServices{
			Profile:  profile,
			Services: servicesByProvider[profile.ID],
		}
		if matchesFilter(listing, filter) {
			listings = append(listings, listing)
		}
	}

	sortListings(listings, filter.Sort)

	if filter.IsEmpty() && service.cache != nil {
		if err := service.cache.Post(ctx, listings); err != nil {
			service.logger.Warnf("directory cache write: %s", err)
		}
	}

	return listings, nil
}

func (service *ProfileService) invalidateDirectory(ctx context.Context) {
	if service.cache == nil {
		return
	}
	if err := service.cache.Invalidate(ctx); err != nil {
		service.logger.Warnf("directory cache invalidate: %s", err)
	}
}

func matchesFilter(listing *domain.ProfileWithServices, filter *domain.SearchFilter) bool {
	profile := listing.Profile

	if len(filter.Services) > 0 {
		found := false
		for _, svc := range listing.Services {
			for _, wanted := range filter.Services {
				if strings.EqualFold(svc.Name, wanted) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filter.LocationTypes) > 0 {
		found := false
		for _, wanted := range filter.LocationTypes {
			if string(profile.LocationType) == wanted {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		username := strings.ToLower(profile.Username)
		location := strings.ToLower(profile.Location)
		if !strings.Contains(username, needle) && !strings.Contains(location, needle) {
			return false
		}
	}

	if filter.HasRadius() {
		// Profiles without coordinates never match a radius query. Mobile
		// providers with coordinates are returned like everyone else; hiding
		// them from map rendering is a client concern.
		if profile.Latitude == nil || profile.Longitude == nil {
			return false
		}
		distance := haversineKm(*filter.Lat, *filter.Lng, *profile.Latitude, *profile.Longitude)
		if distance > *filter.Radius {
			return false
		}
	}

	return true
}

// sortListings orders in place. Missing rating and review count rank as
// zero; ties break on ascending id so the order is deterministic.
func sortListings(listings []*domain.ProfileWithServices, order domain.SortOrder) {
	rating := func(listing *domain.ProfileWithServices) float64 {
		if listing.Profile.Rating == nil {
			return 0
		}
		return *listing.Profile.Rating
	}

	var less func(a, b *domain.ProfileWithServices) bool
	switch order {
	case domain.SortRatingHigh:
		less = func(a, b *domain.ProfileWithServices) bool { return rating(a) > rating(b) }
	case domain.SortRatingLow:
		less = func(a, b *domain.ProfileWithServices) bool { return rating(a) < rating(b) }
	case domain.SortReviewsHigh:
		less = func(a, b *domain.ProfileWithServices) bool { return a.Profile.ReviewCount > b.Profile.ReviewCount }
	case domain.SortReviewsLow:
		less = func(a, b *domain.ProfileWithServices) bool { return a.Profile.ReviewCount < b.Profile.ReviewCount }
	default:
		// Store order is creation order; leave it alone.
		return
	}

	sort.SliceStable(listings, func(i, j int) bool {
		if less(listings[i], listings[j]) {
			return true
		}
		if less(listings[j], listings[i]) {
			return false
		}
		return listings[i].Profile.ID.Hex() < listings[j].Profile.ID.Hex()
	})
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// recomputeProviderRating refreshes the derived rating and review count on
// the provider profile from the surviving reviews.
func recomputeProviderRating(ctx context.Context, reviews domain.ReviewStore, profiles domain.ProfileStore, providerID primitive.ObjectID) error {
	remaining, err := reviews.GetByProvider(ctx, providerID)
	if err != nil {
		return err
	}

	if len(remaining) == 0 {
		return profiles.UpdateRating(ctx, providerID, nil, 0)
	}

	sum := 0
	for _, review := range remaining {
		sum += review.Rating
	}
	avg := float64(sum) / float64(len(remaining))
	return profiles.UpdateRating(ctx, providerID, &avg, len(remaining))
}
