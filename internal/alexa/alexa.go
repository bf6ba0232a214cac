// Package alexa holds the Alexa Skills Kit request and response envelopes
// the skill reads and writes.
package alexa

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Request types.
const (
	LaunchRequestType       = "LaunchRequest"
	IntentRequestType       = "IntentRequest"
	SessionEndedRequestType = "SessionEndedRequest"
)

// Intent names.
const (
	LogFoodIntent  = "LogFoodIntent"
	StopIntent     = "AMAZON.StopIntent"
	CancelIntent   = "AMAZON.CancelIntent"
	HelpIntent     = "AMAZON.HelpIntent"
	FallbackIntent = "AMAZON.FallbackIntent"
)

// Slot names of LogFoodIntent.
const (
	FoodItemSlot     = "FoodItem"
	UserResponseSlot = "UserResponse"
)

// MaxClockSkew is how far a request timestamp may drift from now.
const MaxClockSkew = 150 * time.Second

// RequestEnvelope is the body Alexa posts to the skill endpoint.
type RequestEnvelope struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Request Request `json:"request"`
}

// Session is the Alexa session block.
type Session struct {
	New         bool            `json:"new"`
	SessionID   string          `json:"sessionId"`
	Application Application     `json:"application"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

// Application identifies the skill a request was sent for.
type Application struct {
	ApplicationID string `json:"applicationId"`
}

// Request is the Alexa request block.
type Request struct {
	Type      string    `json:"type"`
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
	Locale    string    `json:"locale"`
	Intent    Intent    `json:"intent"`
	Reason    string    `json:"reason,omitempty"`
}

// Intent is a recognized intent and its slots.
type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots"`
}

// Slot is a named value extracted from the utterance.
type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SlotValue returns the value of a slot, or "" when it is absent.
func (r *Request) SlotValue(name string) string {
	if r.Intent.Slots == nil {
		return ""
	}
	return r.Intent.Slots[name].Value
}

// ErrApplicationMismatch is returned when a request targets another skill.
var ErrApplicationMismatch = errors.New("request application id does not match skill")

// Verify checks the application id (when skillID is set) and that the
// request timestamp is within MaxClockSkew of now.
func (e *RequestEnvelope) Verify(skillID string, now time.Time) error {
	if skillID != "" && e.Session.Application.ApplicationID != skillID {
		return ErrApplicationMismatch
	}
	if e.Request.Timestamp.IsZero() {
		return errors.New("request timestamp missing")
	}
	skew := now.Sub(e.Request.Timestamp)
	if skew < 0 {
		skew = -skew
	}
	if skew > MaxClockSkew {
		return fmt.Errorf("request timestamp off by %s", skew.Round(time.Second))
	}
	return nil
}

// ResponseEnvelope is the body the skill returns to Alexa.
type ResponseEnvelope struct {
	Version           string          `json:"version"`
	SessionAttributes json.RawMessage `json:"sessionAttributes,omitempty"`
	Response          Response        `json:"response"`
}

// Response is the Alexa response block.
type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

// OutputSpeech is plain-text speech.
type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Reprompt is spoken when the user does not answer.
type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

// NewResponse builds a response envelope. Empty speech or reprompt is
// omitted; attributes are only sent while the session stays open.
func NewResponse(speech, reprompt string, endSession bool, attributes json.RawMessage) ResponseEnvelope {
	resp := ResponseEnvelope{
		Version:  "1.0",
		Response: Response{ShouldEndSession: endSession},
	}
	if speech != "" {
		resp.Response.OutputSpeech = &OutputSpeech{Type: "PlainText", Text: speech}
	}
	if reprompt != "" && !endSession {
		resp.Response.Reprompt = &Reprompt{OutputSpeech: OutputSpeech{Type: "PlainText", Text: reprompt}}
	}
	if !endSession {
		resp.SessionAttributes = attributes
	}
	return resp
}
