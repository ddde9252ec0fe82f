package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	application "github.com/yijiasang/glamap/service"
)

type MessageHandler struct {
	service  *application.MessageService
	profiles *application.ProfileService
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewMessageHandler(service *application.MessageService, profiles *application.ProfileService, tracer trace.Tracer, logger *logrus.Logger) *MessageHandler {
	return &MessageHandler{
		service:  service,
		profiles: profiles,
		tracer:   tracer,
		logger:   logger,
	}
}

func (handler *MessageHandler) Init(router *mux.Router) {
	router.HandleFunc("/messages", handler.List).Methods("GET")
	router.HandleFunc("/messages", handler.Send).Methods("POST")
	router.HandleFunc("/messages/conversation/{otherUserId}", handler.DeleteConversation).Methods("DELETE")
	router.HandleFunc("/messages/{id}", handler.Delete).Methods("DELETE")
}

// List returns the thread with ?otherUserId=, or the conversation overview
// without it.
func (handler *MessageHandler) List(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "MessageHandler.List")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	other := req.URL.Query().Get("otherUserId")
	if other == "" {
		conversations, err := handler.service.ListConversations(ctx, profile.ID)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			writeError(writer, handler.logger, err)
			return
		}
		jsonResponse(conversations, writer)
		return
	}

	otherID, err := primitive.ObjectIDFromHex(other)
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid otherUserId")
		return
	}

	messages, err := handler.service.ListMessages(ctx, profile.ID, otherID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	jsonResponse(messages, writer)
}

func (handler *MessageHandler) Send(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "MessageHandler.Send")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	var body struct {
		ReceiverID string `json:"receiverId"`
		Content    string `json:"content"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid request")
		return
	}

	receiverID, err := primitive.ObjectIDFromHex(body.ReceiverID)
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid receiver id")
		return
	}
	if body.Content == "" || len(body.Content) > 2000 {
		writeJSONError(writer, http.StatusBadRequest, "invalid request")
		return
	}

	message, err := handler.service.Send(ctx, profile, receiverID, body.Content)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	writer.WriteHeader(http.StatusCreated)
	jsonResponse(message, writer)
}

func (handler *MessageHandler) Delete(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "MessageHandler.Delete")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	vars := mux.Vars(req)
	messageID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid message id")
		return
	}

	if err := handler.service.DeleteMessage(ctx, profile.ID, messageID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}

func (handler *MessageHandler) DeleteConversation(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "MessageHandler.DeleteConversation")
	defer span.End()

	profile, err := resolveProfile(req, handler.profiles)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}

	vars := mux.Vars(req)
	otherID, err := primitive.ObjectIDFromHex(vars["otherUserId"])
	if err != nil {
		writeJSONError(writer, http.StatusBadRequest, "invalid otherUserId")
		return
	}

	if err := handler.service.DeleteConversation(ctx, profile.ID, otherID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(writer, handler.logger, err)
		return
	}
	writer.WriteHeader(http.StatusNoContent)
}
