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

type ReviewHandler struct {
	service  *application.ReviewService
	profiles *application.ProfileService
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewReviewHandler(service *application.ReviewService, profiles *application.ProfileService, tracer trace.Tracer, logger *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		profiles: profiles,
		tracer:   tracer,
		logger:   logger,
	}
}

func (handler *ReviewHandler) Init(router *mux.Router) {
	router.HandleFunc("/reviews/check/{providerId}", handler.Check).Methods("GET")
	router.HandleFunc("/reviews", handler.Create).Methods("POST")
	router.HandleFunc("/reviews/{id}", handler.Delete).Methods("DELETE")
}

func (handler *ReviewHandler) Check(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReviewHandler.Check")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	vars := mux.Vars(req)
	providerID, err := primitive.ObjectIDFromHex(vars["providerId"])
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid provider id")
		return
	}

	check, err := handler.service.HasReviewed(ctx, profile.ID, providerID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(check, writer)
}

func (handler *ReviewHandler) Create(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReviewHandler.Create")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	var body struct {
		ProviderID string `json:"providerId"`
		Rating     int    `json:"rating"`
		Text       string `json:"text"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid request")
		return
	}

	providerID, err := primitive.ObjectIDFromHex(body.ProviderID)
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid provider id")
		return
	}

	review := &domain.Review{
		ClientID:   profile.ID,
		ProviderID: providerID,
		Rating:     body.Rating,
		Text:       body.Text,
	}
	if err := review.Validate(); err != nil {
		writeValidationError(writer, err)
		return
	}

	saved, err := handler.service.Create(ctx, review)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	writer.WriteHeader(http.StatusCreated)
	jsonResponse(saved, writer)
}

func (handler *ReviewHandler) Delete(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReviewHandler.Delete")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	vars := mux.Vars(req)
	reviewID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid review id")
		return
	}

	if err := handler.service.Delete(ctx, profile.ID, reviewID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}
