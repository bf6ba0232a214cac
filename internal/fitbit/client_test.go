package fitbit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/windoze95/nickate-skill/internal/models"
)

const searchBody = `{"foods":[
	{"foodId":1,"name":"Peanut Butter","brand":"","defaultServingSize":2,"defaultUnit":{"id":349,"name":"tbsp","plural":"tbsp"}},
	{"foodId":2,"name":"PB2","brand":"Bell Plantation","defaultServingSize":1,"defaultUnit":{"id":304,"name":"serving","plural":"servings"}}
]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.URL+"/oauth2/authorize", 2*time.Second)
}

func TestSearchFoods_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1/foods/search.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "peanut butter" {
			t.Errorf("query = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchBody)
	})

	foods, err := c.SearchFoods(context.Background(), "tok", "peanut butter")
	if err != nil {
		t.Fatalf("SearchFoods error: %v", err)
	}
	if len(foods) != 2 {
		t.Fatalf("len(foods) = %d, want 2", len(foods))
	}
	if foods[0].FoodID != 1 || foods[1].FoodID != 2 {
		t.Errorf("order not preserved: %+v", foods)
	}
	pb2 := foods[1]
	if pb2.DefaultUnitID != 304 || pb2.DefaultServingSize != 1 || pb2.DefaultUnitPlural != "servings" || pb2.Brand != "Bell Plantation" {
		t.Errorf("PB2 = %+v", pb2)
	}
}

func TestSearchFoods_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"foods":[]}`)
	})

	foods, err := c.SearchFoods(context.Background(), "tok", "unobtainium")
	if err != nil {
		t.Fatalf("SearchFoods error: %v", err)
	}
	if foods == nil || len(foods) != 0 {
		t.Errorf("foods = %v, want empty non-nil slice", foods)
	}
}

func TestSearchFoods_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errors":[{"errorType":"expired_token"}]}`)
	})

	_, err := c.SearchFoods(context.Background(), "tok", "apple")
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthorizationError", err)
	}
}

func TestSearchFoods_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.SearchFoods(context.Background(), "tok", "apple")
	var rej *RemoteRejection
	if !errors.As(err, &rej) || rej.StatusCode != http.StatusInternalServerError {
		t.Fatalf("err = %v, want *RemoteRejection 500", err)
	}
}

func TestSearchFoods_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := NewClient(srv.URL, srv.URL, time.Second)
	srv.Close()

	_, err := c.SearchFoods(context.Background(), "tok", "apple")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
}

func TestSearchFoods_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, srv.URL, 20*time.Millisecond)

	_, err := c.SearchFoods(context.Background(), "tok", "apple")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
}

func TestLogFood_Created(t *testing.T) {
	var form url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/1/user/-/foods/log.json" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		form = r.URL.Query()
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"foodLog":{"logId":42}}`)
	})

	entry := models.MealLogEntry{FoodID: 2, MealTypeID: models.Lunch, UnitID: 304, Amount: 1, Date: "2024-03-15"}
	result, err := c.LogFood(context.Background(), "tok", entry)
	if err != nil {
		t.Fatalf("LogFood error: %v", err)
	}
	if !result.Success || result.StatusCode != http.StatusCreated {
		t.Errorf("result = %+v", result)
	}

	want := map[string]string{
		"foodId":     "2",
		"mealTypeId": "3",
		"unitId":     "304",
		"amount":     "1.00",
		"date":       "2024-03-15",
	}
	for k, v := range want {
		if got := form.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestLogFood_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errors":[{"fieldName":"unitId"}]}`)
	})

	result, err := c.LogFood(context.Background(), "tok", models.MealLogEntry{FoodID: 1, Amount: 1})
	if result.Success {
		t.Error("Success should be false")
	}
	if !strings.Contains(result.RawBody, "unitId") {
		t.Errorf("RawBody = %q", result.RawBody)
	}
	var rej *RemoteRejection
	if !errors.As(err, &rej) || rej.StatusCode != http.StatusBadRequest {
		t.Errorf("err = %v, want *RemoteRejection 400", err)
	}
}

func TestLogFood_InvalidAmountNotSent(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for _, amount := range []float64{0, 0.001, -1, math.Inf(1), math.NaN()} {
		_, err := c.LogFood(context.Background(), "tok", models.MealLogEntry{FoodID: 1, Amount: amount})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %v: err = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if calls != 0 {
		t.Errorf("server called %d times, want 0", calls)
	}
}

func TestGetProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1/user/-/profile.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"user":{"displayName":"Nick","timezone":"America/New_York"}}`)
	})

	p, err := c.GetProfile(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetProfile error: %v", err)
	}
	if p.DisplayName != "Nick" {
		t.Errorf("DisplayName = %q", p.DisplayName)
	}
}

func TestRefreshToken_BasicAuthAndForm(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/oauth2/token" {
			t.Errorf("path = %q", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			t.Errorf("basic auth = %q:%q (%v)", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "refresh-old" {
			t.Errorf("refresh_token = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access-new","refresh_token":"refresh-new","token_type":"Bearer","expires_in":28800}`)
	})

	tok, err := c.RefreshToken(context.Background(), models.Credentials{
		RefreshToken: "refresh-old",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if tok.AccessToken != "access-new" || tok.RefreshToken != "refresh-new" {
		t.Errorf("token = %+v", tok)
	}
	if calls != 1 {
		t.Errorf("token endpoint called %d times, want 1", calls)
	}
}

func TestRefreshToken_InvalidGrant(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errors":[{"errorType":"invalid_grant"}],"success":false}`)
	})

	_, err := c.RefreshToken(context.Background(), models.Credentials{RefreshToken: "stale", ClientID: "a", ClientSecret: "b"})
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthorizationError", err)
	}
}

func TestRefreshToken_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.RefreshToken(context.Background(), models.Credentials{RefreshToken: "r", ClientID: "a", ClientSecret: "b"})
	var rej *RemoteRejection
	if !errors.As(err, &rej) || rej.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want *RemoteRejection 503", err)
	}
}

func TestAuthCodeURL(t *testing.T) {
	c := NewClient(DefaultAPIURL, DefaultAuthURL, time.Second)
	raw := c.AuthCodeURL("client-id", "https://skill.example.com/cb", "state-123")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "client-id" || q.Get("state") != "state-123" || q.Get("response_type") != "code" {
		t.Errorf("query = %v", q)
	}
	if q.Get("scope") != "nutrition profile" {
		t.Errorf("scope = %q", q.Get("scope"))
	}
	if !strings.HasPrefix(raw, DefaultAuthURL) {
		t.Errorf("url = %q", raw)
	}
}
