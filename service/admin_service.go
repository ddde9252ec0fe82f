package application

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
)

// AdminService rolls up platform statistics and performs privileged profile
// removal. Handlers verify the caller's admin flag before delegating here.
type AdminService struct {
	profiles domain.ProfileStore
	messages domain.MessageStore
	visits   domain.VisitStore
	profSvc  *ProfileService
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewAdminService(
	profiles domain.ProfileStore,
	messages domain.MessageStore,
	visits domain.VisitStore,
	profSvc *ProfileService,
	tracer trace.Tracer,
	logger *logrus.Logger,
) *AdminService {
	return &AdminService{
		profiles: profiles,
		messages: messages,
		visits:   visits,
		profSvc:  profSvc,
		tracer:   tracer,
		logger:   logger,
	}
}

func (service *AdminService) GetStats(ctx context.Context) (*domain.Stats, error) {
	ctx, span := service.tracer.Start(ctx, "AdminService.GetStats")
	defer span.End()

	total, err := service.profiles.Count(ctx)
	if err != nil {
		return nil, err
	}
	providers, err := service.profiles.CountByRole(ctx, domain.Provider)
	if err != nil {
		return nil, err
	}
	clients, err := service.profiles.CountByRole(ctx, domain.Client)
	if err != nil {
		return nil, err
	}
	messages, err := service.messages.Count(ctx)
	if err != nil {
		return nil, err
	}
	byLocationType, err := service.profiles.CountProvidersByLocationType(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.Stats{
		TotalProfiles:           total,
		Providers:               providers,
		Clients:                 clients,
		TotalMessages:           messages,
		ProvidersByLocationType: byLocationType,
	}, nil
}

func (service *AdminService) GetAllProfiles(ctx context.Context) ([]*domain.Profile, error) {
	ctx, span := service.tracer.Start(ctx, "AdminService.GetAllProfiles")
	defer span.End()

	return service.profiles.GetAll(ctx)
}

// DeleteProfile cascades through the profile service, which also rejects
// admin targets.
func (service *AdminService) DeleteProfile(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "AdminService.DeleteProfile")
	defer span.End()

	return service.profSvc.Delete(ctx, id)
}

func (service *AdminService) GetPageVisitCount(ctx context.Context) (int64, error) {
	ctx, span := service.tracer.Start(ctx, "AdminService.GetPageVisitCount")
	defer span.End()

	return service.visits.Count(ctx)
}

// TrackVisit bumps the counter and swallows failures; losing a visit is
// never worth failing a page load.
func (service *AdminService) TrackVisit(ctx context.Context) {
	ctx, span := service.tracer.Start(ctx, "AdminService.TrackVisit")
	defer span.End()

	if err := service.visits.Increment(ctx); err != nil {
		service.logger.Warnf("track visit: %s", err)
	}
}
