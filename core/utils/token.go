package utils

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"leadbook/core/constants"
	"leadbook/core/errors"
)

// VisitorClaims identify a browser profile across wizard sessions. The
// credential record and the wizard both key off VisitorID.
type VisitorClaims struct {
	VisitorID string `json:"visitor_id"`
	jwt.RegisteredClaims
}

// IssueVisitorToken signs a long-lived token for a new visitor.
func IssueVisitorToken(visitorID, secret string) (string, error) {
	claims := VisitorClaims{
		VisitorID: visitorID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(constants.VisitorTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAndParseToken verifies a visitor token and returns its claims.
func ValidateAndParseToken(tokenString, secret string) (*VisitorClaims, *errors.AppError) {
	claims := &VisitorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAppError(errors.ErrTokenExpired, "visitor token expired", err)
		}
		return nil, errors.NewAppError(errors.ErrInvalidTokenFormat, "invalid visitor token", err)
	}
	if !token.Valid || claims.VisitorID == "" {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "invalid visitor token", nil)
	}
	return claims, nil
}
