package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the JWT claims the API cares about. The subject is the
// user ID that scopes every hierarchy operation.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
