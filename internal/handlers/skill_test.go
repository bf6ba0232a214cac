package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/nickate-skill/internal/alexa"
	"github.com/windoze95/nickate-skill/internal/models"
	"github.com/windoze95/nickate-skill/internal/service"
	"github.com/windoze95/nickate-skill/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// 18:00 in the test reference zone.
var testNow = time.Date(2024, time.March, 15, 23, 0, 0, 0, time.UTC)

func newTestSkillHandler(api *testutil.MockFitbitAPI) *SkillHandler {
	svc := service.NewSkillService(testutil.TestConfig(), api, &testutil.MockTokenSource{Token: "access"})
	svc.Now = func() time.Time { return testNow }
	h := NewSkillHandler(svc, "amzn1.ask.skill.test")
	h.Now = func() time.Time { return testNow }
	return h
}

func skillRouter(h *SkillHandler) *gin.Engine {
	r := gin.New()
	r.POST("/v1/alexa", h.HandleRequest)
	return r
}

func envelope(requestType, intent string, slots map[string]string, attrs json.RawMessage) string {
	slotJSON := map[string]alexa.Slot{}
	for k, v := range slots {
		slotJSON[k] = alexa.Slot{Name: k, Value: v}
	}
	env := map[string]interface{}{
		"version": "1.0",
		"session": map[string]interface{}{
			"new":         attrs == nil,
			"sessionId":   "amzn1.echo-api.session.1",
			"application": map[string]string{"applicationId": "amzn1.ask.skill.test"},
			"attributes":  attrs,
		},
		"request": map[string]interface{}{
			"type":      requestType,
			"requestId": "amzn1.echo-api.request.1",
			"timestamp": testNow.Format(time.RFC3339),
			"locale":    "en-US",
			"intent":    map[string]interface{}{"name": intent, "slots": slotJSON},
		},
	}
	b, _ := json.Marshal(env)
	return string(b)
}

func post(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/v1/alexa", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) alexa.ResponseEnvelope {
	t.Helper()
	var resp alexa.ResponseEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v. body: %s", err, w.Body.String())
	}
	return resp
}

func TestHandleRequest_Launch(t *testing.T) {
	r := skillRouter(newTestSkillHandler(&testutil.MockFitbitAPI{}))

	w := post(r, envelope(alexa.LaunchRequestType, "", nil, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp.Response.OutputSpeech == nil || !strings.Contains(resp.Response.OutputSpeech.Text, "Welcome") {
		t.Errorf("speech = %+v", resp.Response.OutputSpeech)
	}
	if resp.Response.ShouldEndSession {
		t.Error("launch should keep the session open")
	}
}

func TestHandleRequest_SessionRoundTrip(t *testing.T) {
	api := &testutil.MockFitbitAPI{}
	api.SearchFoodsFunc = func(ctx context.Context, accessToken, query string) ([]models.Food, error) {
		return testutil.TestFoods(), nil
	}
	r := skillRouter(newTestSkillHandler(api))

	w := post(r, envelope(alexa.IntentRequestType, alexa.LogFoodIntent,
		map[string]string{alexa.FoodItemSlot: "peanut butter"}, nil))
	resp := decode(t, w)
	if len(resp.SessionAttributes) == 0 {
		t.Fatalf("expected session attributes, body: %s", w.Body.String())
	}

	w = post(r, envelope(alexa.IntentRequestType, alexa.LogFoodIntent,
		map[string]string{alexa.UserResponseSlot: "yes"}, resp.SessionAttributes))
	resp = decode(t, w)
	if !resp.Response.ShouldEndSession {
		t.Error("session should end after logging")
	}
	if len(resp.SessionAttributes) != 0 {
		t.Errorf("attributes = %s, want none", resp.SessionAttributes)
	}

	logged := api.Logged()
	if len(logged) != 1 || logged[0].FoodID != 1 {
		t.Fatalf("logged = %+v", logged)
	}
	if logged[0].MealTypeID != models.Dinner {
		t.Errorf("MealTypeID = %d, want dinner at 18:00", logged[0].MealTypeID)
	}
}

func TestHandleRequest_WrongApplication(t *testing.T) {
	r := skillRouter(newTestSkillHandler(&testutil.MockFitbitAPI{}))

	body := strings.Replace(envelope(alexa.LaunchRequestType, "", nil, nil), "amzn1.ask.skill.test", "amzn1.ask.skill.other", 1)
	w := post(r, body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleRequest_StaleTimestamp(t *testing.T) {
	h := newTestSkillHandler(&testutil.MockFitbitAPI{})
	h.Now = func() time.Time { return testNow.Add(5 * time.Minute) }
	r := skillRouter(h)

	w := post(r, envelope(alexa.LaunchRequestType, "", nil, nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleRequest_InvalidBody(t *testing.T) {
	r := skillRouter(newTestSkillHandler(&testutil.MockFitbitAPI{}))

	w := post(r, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleRequest_UnreadableAttributesResetDialogue(t *testing.T) {
	r := skillRouter(newTestSkillHandler(&testutil.MockFitbitAPI{}))

	w := post(r, envelope(alexa.IntentRequestType, alexa.LogFoodIntent,
		map[string]string{alexa.UserResponseSlot: "yes"}, json.RawMessage(`{"candidates":"oops"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode(t, w)
	if resp.Response.OutputSpeech == nil || resp.Response.OutputSpeech.Text != "What did Nick eat?" {
		t.Errorf("speech = %+v", resp.Response.OutputSpeech)
	}
}

func TestRequestKind(t *testing.T) {
	tests := []struct {
		req  alexa.Request
		want service.Kind
	}{
		{alexa.Request{Type: alexa.LaunchRequestType}, service.KindLaunch},
		{alexa.Request{Type: alexa.SessionEndedRequestType}, service.KindSessionEnded},
		{alexa.Request{Type: alexa.IntentRequestType, Intent: alexa.Intent{Name: alexa.LogFoodIntent}}, service.KindLogFood},
		{alexa.Request{Type: alexa.IntentRequestType, Intent: alexa.Intent{Name: alexa.StopIntent}}, service.KindStop},
		{alexa.Request{Type: alexa.IntentRequestType, Intent: alexa.Intent{Name: alexa.CancelIntent}}, service.KindCancel},
		{alexa.Request{Type: alexa.IntentRequestType, Intent: alexa.Intent{Name: alexa.HelpIntent}}, service.KindHelp},
		{alexa.Request{Type: alexa.IntentRequestType, Intent: alexa.Intent{Name: alexa.FallbackIntent}}, service.KindFallback},
		{alexa.Request{Type: alexa.IntentRequestType, Intent: alexa.Intent{Name: "Other"}}, service.KindUnknown},
	}
	for _, tt := range tests {
		if got := requestKind(&tt.req); got != tt.want {
			t.Errorf("requestKind(%s/%s) = %v, want %v", tt.req.Type, tt.req.Intent.Name, got, tt.want)
		}
	}
}
