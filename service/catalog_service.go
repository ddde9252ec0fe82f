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

// CatalogService manages the services a provider offers.
type CatalogService struct {
	services domain.ServiceStore
	cache    domain.DirectoryCache
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewCatalogService(services domain.ServiceStore, cache domain.DirectoryCache, tracer trace.Tracer, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		services: services,
		cache:    cache,
		tracer:   tracer,
		logger:   logger,
	}
}

// Create adds a service for the requesting provider. Only providers may
// offer services, and a provider cannot list the same name twice; the unique
// (providerId, name) index backs the latter under concurrent requests.
func (service *CatalogService) Create(ctx context.Context, requester *domain.Profile, svc *domain.Service) (*domain.Service, error) {
	ctx, span := service.tracer.Start(ctx, "CatalogService.Create")
	defer span.End()

	if requester.Role != domain.Provider {
		return nil, fmt.Errorf("%w: only providers can offer services", errs.ErrForbidden)
	}

	existing, err := service.services.GetByNameAndProvider(ctx, svc.Name, requester.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrConflict, errs.ServiceNameExists)
	}

	svc.ProviderID = requester.ID
	saved, err := service.services.Create(ctx, svc)
	if err != nil {
		return nil, err
	}

	service.invalidateDirectory(ctx)
	return saved, nil
}

// Delete removes a service after confirming the requester owns it.
func (service *CatalogService) Delete(ctx context.Context, requesterID, serviceID primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "CatalogService.Delete")
	defer span.End()

	svc, err := service.services.Get(ctx, serviceID)
	if err != nil {
		return err
	}
	if svc == nil {
		return fmt.Errorf("%w: service not found", errs.ErrNotFound)
	}
	if svc.ProviderID != requesterID {
		return fmt.Errorf("%w: you do not own this service", errs.ErrForbidden)
	}

	if err := service.services.Delete(ctx, serviceID); err != nil {
		return err
	}

	service.invalidateDirectory(ctx)
	return nil
}

func (service *CatalogService) invalidateDirectory(ctx context.Context) {
	if service.cache == nil {
		return
	}
	if err := service.cache.Invalidate(ctx); err != nil {
		service.logger.Warnf("directory cache invalidate: %s", err)
	}
}
