package transfer

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// ConnectClaims is the state token of the account-connect flow. The app
// credentials issued by the instance ride along so the callback needs no
// server-side pending state; the secret is AES-encrypted before signing.
type ConnectClaims struct {
	UserID       string `json:"user_id"`
	Server       string `json:"server"`
	SNS          string `json:"sns"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	jwt.RegisteredClaims
}

type GoogleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}
