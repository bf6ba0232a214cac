package dialog

import (
	"strings"

	"github.com/windoze95/nickate-skill/internal/models"
)

// Effect is the remote work a step asks the caller to perform.
type Effect int

// Effect values.
const (
	EffectNone Effect = iota
	EffectSearch
	EffectLog
)

// Prompt names the speech a step renders.
type Prompt string

// Prompt values.
const (
	PromptAskFood       Prompt = "ask_food"
	PromptConfirm       Prompt = "confirm"
	PromptAskQuantity   Prompt = "ask_quantity"
	PromptNextCandidate Prompt = "next_candidate"
	PromptNotFound      Prompt = "not_found"
	PromptOutOfOptions  Prompt = "out_of_options"
	PromptLogged        Prompt = "logged"
)

// Input is one LogFoodIntent turn: the FoodItem slot and the parsed
// UserResponse slot.
type Input struct {
	FoodItem string
	Reply    Reply
	Amount   float64
	Response string
}

// NewInput parses the raw slot values of a turn.
func NewInput(foodItem, userResponse string) Input {
	reply, amount := ParseReply(userResponse)
	return Input{
		FoodItem: strings.TrimSpace(foodItem),
		Reply:    reply,
		Amount:   amount,
		Response: userResponse,
	}
}

// Step is the outcome of a transition.
type Step struct {
	Effect Effect
	// Query is set for EffectSearch.
	Query string
	// Food is the candidate being logged or prompted about.
	Food models.Food
	// Amount is set for EffectLog.
	Amount float64
	Prompt Prompt
	// Next is the session to store once the effect has succeeded.
	Next Session
	Err  error
}

// Next applies one turn to the current session. A food item with no
// follow-up always starts a new search. An invalid session is treated as
// idle.
func Next(cur Session, in Input) Step {
	if !cur.Valid() {
		cur = Session{}
	}

	if in.FoodItem != "" && (in.Reply == ReplyNone || cur.PendingAction == ActionNone) {
		return Step{Effect: EffectSearch, Query: in.FoodItem, Next: Session{}}
	}

	switch cur.PendingAction {
	case ActionConfirm:
		food, _ := cur.Current()
		switch in.Reply {
		case ReplyYes:
			return logStep(food, servingSize(food))
		case ReplyUpdateQuantity:
			next := cur
			next.PendingAction = ActionUpdateQuantity
			return Step{Prompt: PromptAskQuantity, Food: food, Next: next}
		case ReplyWrongFood:
			next := cur
			next.PendingAction = ActionWrongFood
			return browse(next)
		}
		return Step{Prompt: PromptConfirm, Food: food, Next: cur, Err: invalid(cur, in)}

	case ActionUpdateQuantity:
		food, _ := cur.Current()
		if in.Reply == ReplyAmount && in.Amount > 0 {
			return logStep(food, in.Amount)
		}
		return Step{Prompt: PromptAskQuantity, Food: food, Next: cur, Err: invalid(cur, in)}

	case ActionWrongFood:
		return browse(cur)
	}

	step := Step{Prompt: PromptAskFood, Next: Session{}}
	if in.Reply != ReplyNone {
		step.Err = invalid(cur, in)
	}
	return step
}

// Seed starts a dialogue from search results, keeping at most limit of them.
func Seed(query string, foods []models.Food, limit int) Step {
	if len(foods) == 0 {
		return Step{Prompt: PromptNotFound, Query: query, Next: Session{}, Err: NotFoundError{Query: query}}
	}
	if limit > 0 && len(foods) > limit {
		foods = foods[:limit]
	}
	candidates := make([]models.Food, len(foods))
	copy(candidates, foods)

	next := Session{PendingAction: ActionConfirm, Candidates: candidates, Index: 0}
	return Step{Prompt: PromptConfirm, Query: query, Food: candidates[0], Next: next}
}

// browse moves to the next candidate, or ends the dialogue when the list is
// used up.
func browse(cur Session) Step {
	if cur.Index+1 < len(cur.Candidates) {
		next := cur
		next.PendingAction = ActionConfirm
		next.Index++
		return Step{Prompt: PromptNextCandidate, Food: next.Candidates[next.Index], Next: next}
	}
	return Step{Prompt: PromptOutOfOptions, Next: Session{}}
}

func logStep(food models.Food, amount float64) Step {
	return Step{Effect: EffectLog, Prompt: PromptLogged, Food: food, Amount: amount, Next: Session{}}
}

func servingSize(food models.Food) float64 {
	if food.DefaultServingSize > 0 {
		return food.DefaultServingSize
	}
	return 1
}

func invalid(cur Session, in Input) error {
	return InvalidUserInput{State: cur.State(), Response: in.Response}
}
