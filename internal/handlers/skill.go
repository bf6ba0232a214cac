package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/nickate-skill/internal/alexa"
	"github.com/windoze95/nickate-skill/internal/dialog"
	"github.com/windoze95/nickate-skill/internal/logger"
	"github.com/windoze95/nickate-skill/internal/service"
	"go.uber.org/zap"
)

// SkillHandler is the handler for Alexa skill requests.
type SkillHandler struct {
	Service *service.SkillService
	SkillID string
	Now     func() time.Time
}

// NewSkillHandler is the constructor function for initializing a new SkillHandler.
func NewSkillHandler(skillService *service.SkillService, skillID string) *SkillHandler {
	return &SkillHandler{Service: skillService, SkillID: skillID, Now: time.Now}
}

// HandleRequest handles POST /v1/alexa.
func (h *SkillHandler) HandleRequest(c *gin.Context) {
	log := logger.FromContext(c)

	var envelope alexa.RequestEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := envelope.Verify(h.SkillID, h.Now()); err != nil {
		log.Warn("rejected skill request", zap.String("request_type", envelope.Request.Type), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	turn := service.Turn{
		Kind:         requestKind(&envelope.Request),
		FoodItem:     envelope.Request.SlotValue(alexa.FoodItemSlot),
		UserResponse: envelope.Request.SlotValue(alexa.UserResponseSlot),
		Session:      decodeSession(log, envelope.Session.Attributes),
	}
	log.Debug("skill request",
		zap.String("request_type", envelope.Request.Type),
		zap.String("intent", envelope.Request.Intent.Name),
		zap.String("session_id", envelope.Session.SessionID))

	reply := h.Service.Handle(c.Request.Context(), turn)

	c.JSON(http.StatusOK, alexa.NewResponse(reply.Speech, reply.Reprompt, reply.EndSession, encodeSession(log, reply.Session)))
}

// requestKind maps an Alexa request onto the service's request kinds.
func requestKind(r *alexa.Request) service.Kind {
	switch r.Type {
	case alexa.LaunchRequestType:
		return service.KindLaunch
	case alexa.SessionEndedRequestType:
		return service.KindSessionEnded
	case alexa.IntentRequestType:
		switch r.Intent.Name {
		case alexa.LogFoodIntent:
			return service.KindLogFood
		case alexa.StopIntent:
			return service.KindStop
		case alexa.CancelIntent:
			return service.KindCancel
		case alexa.HelpIntent:
			return service.KindHelp
		case alexa.FallbackIntent:
			return service.KindFallback
		}
	}
	return service.KindUnknown
}

func decodeSession(log *zap.Logger, raw json.RawMessage) dialog.Session {
	var session dialog.Session
	if len(raw) == 0 || string(raw) == "null" {
		return session
	}
	if err := json.Unmarshal(raw, &session); err != nil {
		log.Warn("discarding unreadable session attributes", zap.Error(err))
		return dialog.Session{}
	}
	return session
}

func encodeSession(log *zap.Logger, session dialog.Session) json.RawMessage {
	if session.PendingAction == dialog.ActionNone {
		return nil
	}
	raw, err := json.Marshal(session)
	if err != nil {
		log.Error("failed to encode session attributes", zap.Error(err))
		return nil
	}
	return raw
}
