package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
	application "github.com/yijiasang/glamap/service"
)

type CatalogHandler struct {
	service  *application.CatalogService
	profiles *application.ProfileService
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewCatalogHandler(service *application.CatalogService, profiles *application.ProfileService, tracer trace.Tracer, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:  service,
		profiles: profiles,
		tracer:   tracer,
		logger:   logger,
	}
}

func (handler *CatalogHandler) Init(router *mux.Router) {
	router.HandleFunc("/services", handler.Create).Methods("POST")
	router.HandleFunc("/services/{id}", handler.Delete).Methods("DELETE")
}

func (handler *CatalogHandler) Create(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "CatalogHandler.Create")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	var svc domain.Service
	if err := json.NewDecoder(req.Body).Decode(&svc); err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid request")
		return
	}
	if err := svc.Validate(); err != nil {
		writeValidationError(writer, err)
		return
	}

	saved, err := handler.service.Create(ctx, profile, &svc)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	writer.WriteHeader(http.StatusCreated)
	jsonResponse(saved, writer)
}

func (handler *CatalogHandler) Delete(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "CatalogHandler.Delete")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	vars := mux.Vars(req)
	serviceID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid service id")
		return
	}

	if err := handler.service.Delete(ctx, profile.ID, serviceID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}
