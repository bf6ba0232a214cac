// Package dialog is the food disambiguation conversation. Everything here is
// pure: Next and Seed decide what to say and which remote effect to run,
// and the service layer runs the effect.
package dialog

import "github.com/windoze95/nickate-skill/internal/models"

// Action is the response the dialogue is waiting for.
type Action string

// Action values.
const (
	ActionNone           Action = ""
	ActionConfirm        Action = "confirm"
	ActionUpdateQuantity Action = "update_quantity"
	ActionWrongFood      Action = "wrong_food"
)

// State is the named dialogue state derived from the pending action.
type State string

// State values.
const (
	StateIdle                 State = "Idle"
	StateAwaitingConfirmation State = "AwaitingConfirmation"
	StateAwaitingQuantity     State = "AwaitingQuantity"
	StateBrowsingAlternatives State = "BrowsingAlternatives"
)

// Session is the per-dialogue state. It lives in the voice platform's
// session attributes between turns.
type Session struct {
	PendingAction Action        `json:"pending_action,omitempty"`
	Candidates    []models.Food `json:"candidates,omitempty"`
	Index         int           `json:"current_index"`
}

// Valid reports whether the session satisfies its invariant: a pending
// action needs a candidate under the cursor.
func (s Session) Valid() bool {
	if s.PendingAction == ActionNone {
		return true
	}
	return len(s.Candidates) > 0 && s.Index >= 0 && s.Index < len(s.Candidates)
}

// State returns the dialogue state for the pending action.
func (s Session) State() State {
	switch s.PendingAction {
	case ActionConfirm:
		return StateAwaitingConfirmation
	case ActionUpdateQuantity:
		return StateAwaitingQuantity
	case ActionWrongFood:
		return StateBrowsingAlternatives
	default:
		return StateIdle
	}
}

// Current returns the candidate under the cursor.
func (s Session) Current() (models.Food, bool) {
	if s.PendingAction == ActionNone || !s.Valid() {
		return models.Food{}, false
	}
	return s.Candidates[s.Index], true
}
