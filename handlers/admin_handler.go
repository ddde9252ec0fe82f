package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
	application "github.com/yijiasang/glamap/service"
)

type AdminHandler struct {
	service  *application.AdminService
	profiles *application.ProfileService
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewAdminHandler(service *application.AdminService, profiles *application.ProfileService, tracer trace.Tracer, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		service:  service,
		profiles: profiles,
		tracer:   tracer,
		logger:   logger,
	}
}

func (handler *AdminHandler) Init(router *mux.Router) {
	router.HandleFunc("/admin/stats", handler.GetStats).Methods("GET")
	router.HandleFunc("/admin/profiles", handler.GetAllProfiles).Methods("GET")
	router.HandleFunc("/admin/profiles/{id}", handler.DeleteProfile).Methods("DELETE")
	router.HandleFunc("/admin/page-visits", handler.GetPageVisits).Methods("GET")
	router.HandleFunc("/visits", handler.TrackVisit).Methods("POST")
}

// requireAdmin resolves the caller and insists on the admin flag; the
// profile flag is authoritative, regardless of what the token claims.
func (handler *AdminHandler) requireAdmin(req *http.Request) (*domain.Profile, error) {
	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		return nil, err
	}
	if !profile.IsAdmin {
		return nil, fmt.Errorf("%w: admin access required", errs.ErrForbidden)
	}
	return profile, nil
}

func (handler *AdminHandler) GetStats(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "AdminHandler.GetStats")
	defer span.End()

	if _, err := handler.requireAdmin(req); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	stats, err := handler.service.GetStats(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(stats, writer)
}

func (handler *AdminHandler) GetAllProfiles(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "AdminHandler.GetAllProfiles")
	defer span.End()

	if _, err := handler.requireAdmin(req); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	profiles, err := handler.service.GetAllProfiles(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(profiles, writer)
}

func (handler *AdminHandler) DeleteProfile(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "AdminHandler.DeleteProfile")
	defer span.End()

	if _, err := handler.requireAdmin(req); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	vars := mux.Vars(req)
	profileID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid profile id")
		return
	}

	if err := handler.service.DeleteProfile(ctx, profileID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

func (handler *AdminHandler) GetPageVisits(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "AdminHandler.GetPageVisits")
	defer span.End()

	if _, err := handler.requireAdmin(req); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	count, err := handler.service.GetPageVisitCount(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(map[string]int64{"count": count}, writer)
}

// TrackVisit is public and fire-and-forget: it always answers 202.
func (handler *AdminHandler) TrackVisit(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "AdminHandler.TrackVisit")
	defer span.End()

	handler.service.TrackVisit(ctx)
	writer.WriteHeader(http.StatusAccepted)
}
