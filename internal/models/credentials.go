package models

import "time"

// Names of the secrets held in the credential store.
const (
	AccessTokenKey  = "FITBIT_ACCESS_TOKEN"
	RefreshTokenKey = "FITBIT_REFRESH_TOKEN"
	ClientIDKey     = "FITBIT_CLIENT_ID"
	ClientSecretKey = "FITBIT_CLIENT_SECRET"
)

// Credentials is the in-memory copy of the Fitbit credential set for a
// single request. Tokens change only through a refresh; the client id and
// secret are configuration.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// Secret is the model for a named secret in the postgres credential store.
type Secret struct {
	Name      string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	Version   int64  `gorm:"not null;default:1"`
	UpdatedAt time.Time
}
