package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	application "github.com/yijiasang/glamap/service"
)

type NotificationHandler struct {
	service  *application.NotificationService
	profiles *application.ProfileService
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewNotificationHandler(service *application.NotificationService, profiles *application.ProfileService, tracer trace.Tracer, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{
		service:  service,
		profiles: profiles,
		tracer:   tracer,
		logger:   logger,
	}
}

func (handler *NotificationHandler) Init(router *mux.Router) {
	router.HandleFunc("/notifications", handler.List).Methods("GET")
	router.HandleFunc("/notifications", handler.ClearAll).Methods("DELETE")
	router.HandleFunc("/notifications/{id}/read", handler.MarkRead).Methods("PUT")
	router.HandleFunc("/notifications/{id}", handler.Delete).Methods("DELETE")
}

func (handler *NotificationHandler) List(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "NotificationHandler.List")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	notifications, err := handler.service.List(ctx, profile.ID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(notifications, writer)
}

func (handler *NotificationHandler) MarkRead(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "NotificationHandler.MarkRead")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	vars := mux.Vars(req)
	notificationID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := handler.service.MarkRead(ctx, profile.ID, notificationID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	writer.WriteHeader(http.StatusOK)
}

func (handler *NotificationHandler) Delete(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "NotificationHandler.Delete")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	vars := mux.Vars(req)
	notificationID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := handler.service.Delete(ctx, profile.ID, notificationID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

func (handler *NotificationHandler) ClearAll(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "NotificationHandler.ClearAll")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	if err := handler.service.ClearAll(ctx, profile.ID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}
