package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/authorization"
	"github.com/yijiasang/glamap/domain"
	application "github.com/yijiasang/glamap/service"
)

type ProfileHandler struct {
	service *application.ProfileService
	tracer  trace.Tracer
	logger  *logrus.Logger
}

func NewProfileHandler(service *application.ProfileService, tracer trace.Tracer, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		tracer:  tracer,
		logger:  logger,
	}
}

func (handler *ProfileHandler) Init(router *mux.Router) {
	router.HandleFunc("/profiles", handler.Search).Methods("GET")
	router.HandleFunc("/profiles/check-username", handler.CheckUsername).Methods("POST")
	router.HandleFunc("/profiles/me", handler.GetMe).Methods("GET")
	router.HandleFunc("/profiles/me", handler.UpdateMe).Methods("PUT")
	router.HandleFunc("/profiles/me/username", handler.ChangeUsername).Methods("PUT")
	router.HandleFunc("/profiles/me", handler.DeleteMe).Methods("DELETE")
	router.HandleFunc("/profiles", handler.Create).Methods("POST")
	router.HandleFunc("/profiles/{id}", handler.GetDetails).Methods("GET")
}

// Search is the public directory listing; every filter is optional.
func (handler *ProfileHandler) Search(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ProfileHandler.Search")
	defer span.End()

	filter := &domain.SearchFilter{
		Services:      multiValue(req, "service"),
		LocationTypes: multiValue(req, "locationType"),
		Search:        req.URL.Query().Get("search"),
		Sort:          domain.SortOrder(req.URL.Query().Get("sort")),
	}

	for key, target := range map[string]**float64{
		"lat":    &filter.Lat,
		"lng":    &filter.Lng,
		"radius": &filter.Radius,
	} {
		raw := req.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSONError(writer, http.StatusBadRequest, "invalid "+key)
			return
		}
		*target = &value
	}

	listings, err := handler.service.Search(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(listings, writer)
}

func (handler *ProfileHandler) GetDetails(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ProfileHandler.GetDetails")
	defer span.End()

	vars := mux.Vars(req)
	id, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid profile id")
		return
	}

	details, err := handler.service.GetDetails(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(details, writer)
}

func (handler *ProfileHandler) GetMe(writer http.ResponseWriter, req *http.Request) {
	_, span := handler.tracer.Start(req.Context(), "ProfileHandler.GetMe")
	defer span.End()

	profile, err := resolveProfile(req, handler.service)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(profile, writer)
}

func (handler *ProfileHandler) CheckUsername(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ProfileHandler.CheckUsername")
	defer span.End()

	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid request")
		return
	}

	available, err := handler.service.CheckUsername(ctx, body.Username)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(map[string]bool{"available": available}, writer)
}

func (handler *ProfileHandler) Create(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ProfileHandler.Create")
	defer span.End()

	principal, err := authorization.ExtractPrincipal(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	var profile domain.Profile
	if err := profile.FromJSON(req.Body); err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid request")
		return
	}
	if err := profile.Validate(); err != nil {
		writeValidationError(writer, err)
		return
	}

	saved, err := handler.service.Create(ctx, principal.ExternalID, &profile)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	writer.WriteHeader(http.StatusCreated)
	jsonResponse(saved, writer)
}

func (handler *ProfileHandler) UpdateMe(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ProfileHandler.UpdateMe")
	defer span.End()

	profile, err := resolveProfile(req, handler.service)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	var updatePayload map[string]interface{}
	if err := json.NewDecoder(req.Body).Decode(&updatePayload); err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid request")
		return
	}

	// Username changes go through the cooldown endpoint; identity and
	// derived fields are never caller-writable.
	for key := range updatePayload {
		switch key {
		case "id", "username", "role", "externalId", "isAdmin",
			"rating", "reviewCount", "usernameChangedAt", "createdAt":
			delete(updatePayload, key)
		}
	}

	if err := mapstructure.Decode(updatePayload, profile); err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid request")
		return
	}
	if err := profile.Validate(); err != nil {
		writeValidationError(writer, err)
		return
	}

	updated, err := handler.service.Update(ctx, profile)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(updated, writer)
}

func (handler *ProfileHandler) ChangeUsername(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ProfileHandler.ChangeUsername")
	defer span.End()

	profile, err := resolveProfile(req, handler.service)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid request")
		return
	}
	if err := domain.ValidateUsername(body.Username); err != nil {
		writeValidationError(writer, err)
		return
	}

	if err := handler.service.ChangeUsername(ctx, profile.ID, body.Username); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	writer.WriteHeader(http.StatusOK)
}

func (handler *ProfileHandler) DeleteMe(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ProfileHandler.DeleteMe")
	defer span.End()

	profile, err := resolveProfile(req, handler.service)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	if err := handler.service.Delete(ctx, profile.ID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}
