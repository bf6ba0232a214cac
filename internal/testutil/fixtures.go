package testutil

import (
	"time"

	"github.com/windoze95/nickate-skill/internal/config"
	"github.com/windoze95/nickate-skill/internal/models"
)

// TestJWTSecret signs OAuth state tokens in tests.
const TestJWTSecret = "test-jwt-secret-key"

// TestLocation is a fixed-offset zone so tests do not depend on tzdata.
var TestLocation = time.FixedZone("EST", -5*60*60)

// TestConfig returns a config with the embedded prompts and test settings.
func TestConfig() *config.Config {
	prompts, err := config.DefaultPrompts()
	if err != nil {
		panic(err)
	}
	return &config.Config{
		EnvVars: config.EnvVars{
			SecretsBackend:   config.BackendKeyring,
			FitbitAPIURL:     "https://api.fitbit.com",
			FitbitAuthURL:    "https://www.fitbit.com/oauth2/authorize",
			TimeZone:         "EST",
			HTTPTimeout:      2 * time.Second,
			MaxCandidates:    10,
			JwtSecretKey:     TestJWTSecret,
			AdminKeyHash:     "$2a$10$abcdefghijklmnopqrstuuABCDEFGHIJKLMNOPQRSTUVWXYZ012",
			OAuthRedirectURL: "https://skill.example.com/v1/oauth/callback",
			RateLimitRPS:     100,
		},
		Prompts:  prompts,
		Location: TestLocation,
	}
}

// TestCredentials returns a full stored credential set.
func TestCredentials() map[string]string {
	return map[string]string{
		models.AccessTokenKey:  "access-old",
		models.RefreshTokenKey: "refresh-old",
		models.ClientIDKey:     "client-id",
		models.ClientSecretKey: "client-secret",
	}
}

// PeanutButter is the first result of the "peanut butter" search.
func PeanutButter() models.Food {
	return models.Food{
		FoodID:             1,
		Name:               "Peanut Butter",
		DefaultUnitID:      349,
		DefaultUnitName:    "tbsp",
		DefaultUnitPlural:  "tbsp",
		DefaultServingSize: 2,
	}
}

// PB2 is the second result of the "peanut butter" search.
func PB2() models.Food {
	return models.Food{
		FoodID:             2,
		Name:               "PB2",
		DefaultUnitID:      304,
		DefaultUnitName:    "serving",
		DefaultUnitPlural:  "servings",
		DefaultServingSize: 1,
	}
}

// TestFoods returns the "peanut butter" search results in relevance order.
func TestFoods() []models.Food {
	return []models.Food{PeanutButter(), PB2()}
}

// At returns the given wall-clock time on 2024-03-15 in TestLocation.
func At(hour, minute int) time.Time {
	return time.Date(2024, time.March, 15, hour, minute, 0, 0, TestLocation)
}
