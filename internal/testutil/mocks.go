package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/windoze95/nickate-skill/internal/fitbit"
	"github.com/windoze95/nickate-skill/internal/models"
	"github.com/windoze95/nickate-skill/internal/secrets"
	"golang.org/x/oauth2"
)

// --- MockSecretStore ---

// MockSecretStore is an in-memory implementation of secrets.Store that
// counts writes per name.
type MockSecretStore struct {
	mu     sync.Mutex
	Values map[string]string
	Puts   map[string]int

	GetErr error
	PutErr error
}

// NewMockSecretStore creates a MockSecretStore holding a copy of values.
func NewMockSecretStore(values map[string]string) *MockSecretStore {
	m := &MockSecretStore{
		Values: make(map[string]string, len(values)),
		Puts:   make(map[string]int),
	}
	for k, v := range values {
		m.Values[k] = v
	}
	return m
}

func (m *MockSecretStore) Get(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", m.GetErr
	}
	v, ok := m.Values[name]
	if !ok {
		return "", secrets.NotFoundError{Name: name}
	}
	return v, nil
}

func (m *MockSecretStore) Put(ctx context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.Values[name] = value
	m.Puts[name]++
	return nil
}

// PutCount returns how many times name was written.
func (m *MockSecretStore) PutCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Puts[name]
}

// Value returns the stored value of name.
func (m *MockSecretStore) Value(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Values[name]
}

// --- MockSwapStore ---

// MockSwapStore is a MockSecretStore that also implements secrets.Swapper.
// A successful swap counts as a write.
type MockSwapStore struct {
	*MockSecretStore
	// BeforeSwap runs inside CompareAndSwap before the comparison, so a test
	// can simulate a concurrent writer.
	BeforeSwap func(values map[string]string)
}

// NewMockSwapStore creates a MockSwapStore holding a copy of values.
func NewMockSwapStore(values map[string]string) *MockSwapStore {
	return &MockSwapStore{MockSecretStore: NewMockSecretStore(values)}
}

func (m *MockSwapStore) CompareAndSwap(ctx context.Context, name, old, new string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BeforeSwap != nil {
		m.BeforeSwap(m.Values)
	}
	if m.Values[name] != old {
		return false, nil
	}
	m.Values[name] = new
	m.Puts[name]++
	return true, nil
}

// --- MockFitbitAPI ---

// MockFitbitAPI is a mock of the Fitbit client that records its calls.
type MockFitbitAPI struct {
	GetProfileFunc   func(ctx context.Context, accessToken string) (*fitbit.Profile, error)
	RefreshTokenFunc func(ctx context.Context, creds models.Credentials) (*oauth2.Token, error)
	SearchFoodsFunc  func(ctx context.Context, accessToken, query string) ([]models.Food, error)
	LogFoodFunc      func(ctx context.Context, accessToken string, entry models.MealLogEntry) (fitbit.LogResult, error)
	AuthCodeURLFunc  func(clientID, redirectURL, state string) string
	ExchangeCodeFunc func(ctx context.Context, clientID, clientSecret, redirectURL, code string) (*oauth2.Token, error)

	mu            sync.Mutex
	ProfileTokens []string
	RefreshCalls  int
	SearchQueries []string
	LoggedEntries []models.MealLogEntry
}

func (m *MockFitbitAPI) GetProfile(ctx context.Context, accessToken string) (*fitbit.Profile, error) {
	m.mu.Lock()
	m.ProfileTokens = append(m.ProfileTokens, accessToken)
	m.mu.Unlock()
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, accessToken)
	}
	return &fitbit.Profile{DisplayName: "Nick"}, nil
}

func (m *MockFitbitAPI) RefreshToken(ctx context.Context, creds models.Credentials) (*oauth2.Token, error) {
	m.mu.Lock()
	m.RefreshCalls++
	m.mu.Unlock()
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, creds)
	}
	return nil, fmt.Errorf("RefreshToken not configured")
}

func (m *MockFitbitAPI) SearchFoods(ctx context.Context, accessToken, query string) ([]models.Food, error) {
	m.mu.Lock()
	m.SearchQueries = append(m.SearchQueries, query)
	m.mu.Unlock()
	if m.SearchFoodsFunc != nil {
		return m.SearchFoodsFunc(ctx, accessToken, query)
	}
	return nil, fmt.Errorf("SearchFoods not configured")
}

func (m *MockFitbitAPI) LogFood(ctx context.Context, accessToken string, entry models.MealLogEntry) (fitbit.LogResult, error) {
	m.mu.Lock()
	m.LoggedEntries = append(m.LoggedEntries, entry)
	m.mu.Unlock()
	if m.LogFoodFunc != nil {
		return m.LogFoodFunc(ctx, accessToken, entry)
	}
	return fitbit.LogResult{Success: true, StatusCode: 201}, nil
}

func (m *MockFitbitAPI) AuthCodeURL(clientID, redirectURL, state string) string {
	if m.AuthCodeURLFunc != nil {
		return m.AuthCodeURLFunc(clientID, redirectURL, state)
	}
	return fmt.Sprintf("https://www.fitbit.com/oauth2/authorize?client_id=%s&state=%s", clientID, state)
}

func (m *MockFitbitAPI) ExchangeCode(ctx context.Context, clientID, clientSecret, redirectURL, code string) (*oauth2.Token, error) {
	if m.ExchangeCodeFunc != nil {
		return m.ExchangeCodeFunc(ctx, clientID, clientSecret, redirectURL, code)
	}
	return nil, fmt.Errorf("ExchangeCode not configured")
}

// ProfileCalls returns the number of profile checks made.
func (m *MockFitbitAPI) ProfileCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ProfileTokens)
}

// Refreshes returns the number of token exchanges made.
func (m *MockFitbitAPI) Refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RefreshCalls
}

// Logged returns a copy of the submitted food logs.
func (m *MockFitbitAPI) Logged() []models.MealLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.MealLogEntry(nil), m.LoggedEntries...)
}

// --- MockTokenSource ---

// MockTokenSource is a mock of the access token manager.
type MockTokenSource struct {
	Token string
	Err   error
	Calls int
}

func (m *MockTokenSource) EnsureValidAccessToken(ctx context.Context) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Token, nil
}
