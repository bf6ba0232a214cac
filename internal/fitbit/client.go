// Package fitbit is a small client for the Fitbit Web API endpoints the
// skill uses: profile, food search, food log and OAuth2 tokens.
package fitbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/windoze95/nickate-skill/internal/logger"
	"github.com/windoze95/nickate-skill/internal/models"
	"go.uber.org/zap"
)

// Default endpoints.
const (
	DefaultAPIURL  = "https://api.fitbit.com"
	DefaultAuthURL = "https://www.fitbit.com/oauth2/authorize"
)

// Client talks to the Fitbit Web API. Every call is bounded by the HTTP
// client timeout.
type Client struct {
	baseURL    string
	authURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given API and authorize URLs.
func NewClient(baseURL, authURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		authURL: authURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Profile is the part of the user profile the skill reads.
type Profile struct {
	DisplayName string `json:"displayName"`
	Timezone    string `json:"timezone"`
}

// LogResult is the outcome of a food log submission. RawBody carries the
// Fitbit response for diagnostics.
type LogResult struct {
	Success    bool
	StatusCode int
	RawBody    string
}

type profileResponse struct {
	User Profile `json:"user"`
}

type searchResponse struct {
	Foods []searchFood `json:"foods"`
}

type searchFood struct {
	FoodID             int64       `json:"foodId"`
	Name               string      `json:"name"`
	Brand              string      `json:"brand"`
	DefaultServingSize float64     `json:"defaultServingSize"`
	DefaultUnit        defaultUnit `json:"defaultUnit"`
}

type defaultUnit struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Plural string `json:"plural"`
}

// GetProfile fetches the user profile. It doubles as the access token check:
// a 401 comes back as *AuthorizationError.
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*Profile, error) {
	status, body, err := c.do(ctx, "profile", http.MethodGet, "/1/user/-/profile.json", accessToken, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("profile", status, body, http.StatusOK); err != nil {
		return nil, err
	}

	var resp profileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse profile response: %w", err)
	}
	return &resp.User, nil
}

// SearchFoods queries the food database. Results keep Fitbit's order; no
// matches is an empty slice and a nil error.
func (c *Client) SearchFoods(ctx context.Context, accessToken, query string) ([]models.Food, error) {
	params := url.Values{}
	params.Set("query", query)

	status, body, err := c.do(ctx, "search", http.MethodGet, "/1/foods/search.json", accessToken, params)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("search", status, body, http.StatusOK); err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	foods := make([]models.Food, 0, len(resp.Foods))
	for _, f := range resp.Foods {
		foods = append(foods, models.Food{
			FoodID:             f.FoodID,
			Name:               f.Name,
			Brand:              f.Brand,
			DefaultUnitID:      f.DefaultUnit.ID,
			DefaultUnitName:    f.DefaultUnit.Name,
			DefaultUnitPlural:  f.DefaultUnit.Plural,
			DefaultServingSize: f.DefaultServingSize,
		})
	}
	return foods, nil
}

// ErrInvalidAmount is returned for an amount that is not positive at the two
// decimals Fitbit accepts.
var ErrInvalidAmount = errors.New("amount must be finite and positive at two decimals")

// LogFood submits a food log entry. Only 201 counts as success. Submitting
// the same entry twice creates two logs.
func (c *Client) LogFood(ctx context.Context, accessToken string, entry models.MealLogEntry) (LogResult, error) {
	if math.IsInf(entry.Amount, 0) || math.IsNaN(entry.Amount) || math.Round(entry.Amount*100) <= 0 {
		return LogResult{}, fmt.Errorf("log food %d: %w", entry.FoodID, ErrInvalidAmount)
	}

	params := url.Values{}
	params.Set("foodId", strconv.FormatInt(entry.FoodID, 10))
	params.Set("mealTypeId", strconv.Itoa(int(entry.MealTypeID)))
	params.Set("unitId", strconv.FormatInt(entry.UnitID, 10))
	params.Set("amount", strconv.FormatFloat(entry.Amount, 'f', 2, 64))
	params.Set("date", entry.Date)

	status, body, err := c.do(ctx, "log", http.MethodPost, "/1/user/-/foods/log.json", accessToken, params)
	if err != nil {
		return LogResult{}, err
	}

	result := LogResult{
		Success:    status == http.StatusCreated,
		StatusCode: status,
		RawBody:    string(body),
	}
	return result, checkStatus("log", status, body, http.StatusCreated)
}

func (c *Client) do(ctx context.Context, op, method, path, accessToken string, params url.Values) (int, []byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}

	logger.Get().Debug("fitbit call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp.StatusCode, body, nil
}

func checkStatus(op string, status int, body []byte, want int) error {
	switch {
	case status == want:
		return nil
	case status == http.StatusUnauthorized:
		return &AuthorizationError{Op: op, Body: string(body)}
	default:
		return &RemoteRejection{Op: op, StatusCode: status, Body: string(body)}
	}
}
