package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/windoze95/nickate-skill/internal/config"
	"github.com/windoze95/nickate-skill/internal/dialog"
	"github.com/windoze95/nickate-skill/internal/fitbit"
	"github.com/windoze95/nickate-skill/internal/logger"
	"github.com/windoze95/nickate-skill/internal/models"
	"go.uber.org/zap"
)

// Kind tags the inbound voice request.
type Kind int

// Kind values.
const (
	KindUnknown Kind = iota
	KindLaunch
	KindLogFood
	KindStop
	KindCancel
	KindHelp
	KindFallback
	KindSessionEnded
)

// Turn is one inbound request, with the session state it arrived with.
type Turn struct {
	Kind         Kind
	FoodItem     string
	UserResponse string
	Session      dialog.Session
}

// Reply is what the skill says back. Session is the state to carry into
// the next turn.
type Reply struct {
	Speech     string
	Reprompt   string
	EndSession bool
	Session    dialog.Session
}

// FoodAPI is the Fitbit food search and log surface.
type FoodAPI interface {
	SearchFoods(ctx context.Context, accessToken, query string) ([]models.Food, error)
	LogFood(ctx context.Context, accessToken string, entry models.MealLogEntry) (fitbit.LogResult, error)
}

// TokenSource hands out a valid Fitbit access token.
type TokenSource interface {
	EnsureValidAccessToken(ctx context.Context) (string, error)
}

// SkillService drives the food logging conversation.
type SkillService struct {
	Cfg    *config.Config
	Foods  FoodAPI
	Tokens TokenSource
	Now    func() time.Time
}

// NewSkillService creates a new SkillService.
func NewSkillService(cfg *config.Config, foods FoodAPI, tokens TokenSource) *SkillService {
	return &SkillService{
		Cfg:    cfg,
		Foods:  foods,
		Tokens: tokens,
		Now:    time.Now,
	}
}

// Handle dispatches a turn to its handler.
func (s *SkillService) Handle(ctx context.Context, turn Turn) Reply {
	p := s.Cfg.Prompts
	switch turn.Kind {
	case KindLaunch:
		return s.say(p.Launch, nil, dialog.Session{})
	case KindLogFood:
		return s.logFood(ctx, turn)
	case KindStop:
		return s.end(p.Stop)
	case KindCancel:
		return s.end(p.Cancel)
	case KindHelp:
		return s.say(p.Help, nil, turn.Session)
	case KindSessionEnded:
		return Reply{EndSession: true}
	default:
		return s.repeat(turn.Session)
	}
}

func (s *SkillService) logFood(ctx context.Context, turn Turn) Reply {
	log := logger.With(zap.String("state", string(turn.Session.State())))
	step := dialog.Next(turn.Session, dialog.NewInput(turn.FoodItem, turn.UserResponse))

	var invalid dialog.InvalidUserInput
	if errors.As(step.Err, &invalid) {
		log.Info("unexpected follow-up, re-prompting", zap.String("response", invalid.Response))
	}

	switch step.Effect {
	case dialog.EffectSearch:
		token, err := s.Tokens.EnsureValidAccessToken(ctx)
		if err != nil {
			return s.failure(err, s.Cfg.Prompts.SearchFailed, dialog.Session{})
		}
		foods, err := s.Foods.SearchFoods(ctx, token, step.Query)
		if err != nil {
			return s.failure(err, s.Cfg.Prompts.SearchFailed, dialog.Session{})
		}
		log.Info("food search", zap.String("query", step.Query), zap.Int("results", len(foods)))
		step = dialog.Seed(step.Query, foods, s.Cfg.EnvVars.MaxCandidates)

	case dialog.EffectLog:
		retry := s.Cfg.Prompts.LogFailed
		if turn.Session.PendingAction == dialog.ActionUpdateQuantity {
			retry = s.Cfg.Prompts.LogAmountFailed
		}
		token, err := s.Tokens.EnsureValidAccessToken(ctx)
		if err != nil {
			return s.failure(err, retry, turn.Session)
		}
		entry := models.NewMealLogEntry(step.Food, step.Amount, s.Now(), s.Cfg.Location)
		result, err := s.Foods.LogFood(ctx, token, entry)
		if err != nil {
			log.Error("food log rejected",
				zap.Int64("food_id", entry.FoodID),
				zap.Int("status", result.StatusCode),
				zap.String("body", result.RawBody),
				zap.Error(err))
			return s.failure(err, retry, turn.Session)
		}
		log.Info("food logged",
			zap.Int64("food_id", entry.FoodID),
			zap.Stringer("meal", entry.MealTypeID),
			zap.Float64("amount", entry.Amount),
			zap.String("date", entry.Date))
		reply := s.say(s.Cfg.Prompts.Logged, s.stepData(step), dialog.Session{})
		reply.EndSession = true
		return reply
	}

	return s.say(s.speechFor(step.Prompt), s.stepData(step), step.Next)
}

// repeat re-asks the question the session is waiting on.
func (s *SkillService) repeat(session dialog.Session) Reply {
	if !session.Valid() {
		session = dialog.Session{}
	}
	food, ok := session.Current()
	if !ok {
		return s.say(s.Cfg.Prompts.AskFood, nil, dialog.Session{})
	}

	data := map[string]interface{}{"Name": food.Name}
	if session.PendingAction == dialog.ActionUpdateQuantity {
		return s.say(s.Cfg.Prompts.AskQuantity, data, session)
	}
	return s.say(s.Cfg.Prompts.Confirm, data, session)
}

// failure turns a remote error into speech. The session stays open and
// keeps the given state so the user can retry.
func (s *SkillService) failure(err error, speech config.Speech, session dialog.Session) Reply {
	var (
		authErr      *fitbit.AuthorizationError
		transportErr *fitbit.TransportError
		rejection    *fitbit.RemoteRejection
	)
	switch {
	case errors.As(err, &authErr):
		logger.Get().Error("fitbit authorization failed", zap.Error(err))
		speech = s.Cfg.Prompts.AuthFailed
	case errors.As(err, &transportErr):
		logger.Get().Error("fitbit unreachable", zap.Error(err))
	case errors.As(err, &rejection):
		logger.Get().Error("fitbit rejected request", zap.Int("status", rejection.StatusCode), zap.Error(err))
	default:
		logger.Get().Error("request failed", zap.Error(err))
		speech = s.Cfg.Prompts.Error
	}
	return s.say(speech, nil, session)
}

func (s *SkillService) end(speech config.Speech) Reply {
	reply := s.say(speech, nil, dialog.Session{})
	reply.EndSession = true
	return reply
}

func (s *SkillService) say(speech config.Speech, data map[string]interface{}, session dialog.Session) Reply {
	return Reply{
		Speech:   render(speech.Speech, data),
		Reprompt: render(speech.Reprompt, data),
		Session:  session,
	}
}

func (s *SkillService) speechFor(p dialog.Prompt) config.Speech {
	prompts := s.Cfg.Prompts
	switch p {
	case dialog.PromptConfirm:
		return prompts.Confirm
	case dialog.PromptAskQuantity:
		return prompts.AskQuantity
	case dialog.PromptNextCandidate:
		return prompts.NextCandidate
	case dialog.PromptNotFound:
		return prompts.NotFound
	case dialog.PromptOutOfOptions:
		return prompts.OutOfOptions
	case dialog.PromptLogged:
		return prompts.Logged
	default:
		return prompts.AskFood
	}
}

func (s *SkillService) stepData(step dialog.Step) map[string]interface{} {
	data := map[string]interface{}{
		"Name":  step.Food.Name,
		"Query": step.Query,
	}
	if step.Amount > 0 {
		amount := strconv.FormatFloat(step.Amount, 'f', -1, 64)
		if unit := step.Food.UnitLabel(step.Amount); unit != "" {
			amount += " " + unit
		}
		data["Amount"] = amount
	}
	return data
}

func render(tmpl string, data map[string]interface{}) string {
	if tmpl == "" {
		return ""
	}
	out, err := config.RenderPrompt(tmpl, data)
	if err != nil {
		logger.Get().Error("failed to render prompt", zap.String("template", tmpl), zap.Error(err))
		return tmpl
	}
	return out
}
