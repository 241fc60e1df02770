package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the access token claims issued by the web front-end.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
