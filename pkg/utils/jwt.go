package utils

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/fediplan/internal/transfer"
)

const issuer = "fediplan"

func GenerateToken(secretKey, userID string, tokenDuration time.Duration) (string, error) {
	claims := transfer.CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return signedToken, nil
}

func ValidateToken(secretKey, tokenString string) (*transfer.CustomClaims, error) {
	var claims transfer.CustomClaims
	if err := parseClaims(secretKey, tokenString, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// GenerateConnectToken signs the account-connect state token. It expires
// quickly: the user is expected to come straight back from the instance's
// authorize page.
func GenerateConnectToken(secretKey string, claims *transfer.ConnectClaims) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return signedToken, nil
}

func ValidateConnectToken(secretKey, tokenString string) (*transfer.ConnectClaims, error) {
	var claims transfer.ConnectClaims
	if err := parseClaims(secretKey, tokenString, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func parseClaims(secretKey, tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
