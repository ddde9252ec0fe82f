package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	application "github.com/yijiasang/glamap/service"
)

type UploadHandler struct {
	service  *application.StorageService
	profiles *application.ProfileService
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewUploadHandler(service *application.StorageService, profiles *application.ProfileService, tracer trace.Tracer, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{
		service:  service,
		profiles: profiles,
		tracer:   tracer,
		logger:   logger,
	}
}

func (handler *UploadHandler) Init(router *mux.Router) {
	router.HandleFunc("/uploads/sign", handler.Sign).Methods("POST")
}

// Sign hands out an upload URL from the object storage collaborator; the
// file itself never passes through this service.
func (handler *UploadHandler) Sign(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UploadHandler.Sign")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	var body struct {
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid request")
		return
	}
	if body.Filename == "" {
		writeJSONError(writer, http.StatusBadRequest, "filename is required")
		return
	}

	ticket, err := handler.service.SignUpload(ctx, profile.ID.Hex(), body.Filename, body.ContentType)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(ticket, writer)
}
