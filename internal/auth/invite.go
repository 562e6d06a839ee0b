package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// InviteClaims is the payload of a board invitation token. The token is the
// only credential an invitee needs to accept, so it is signed and short-lived.
type InviteClaims struct {
	jwt.RegisteredClaims
	BoardID string `json:"bid"`
	UserID  string `json:"uid"`
}

// ErrInvalidInvite is returned when an invite token is malformed or expired.
var ErrInvalidInvite = errors.New("auth: invalid or expired invite token")

// IssueInviteToken creates a signed, time-limited board invitation token.
func IssueInviteToken(secret string, boardID, userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := InviteClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "collabboard",
		},
		BoardID: boardID.String(),
		UserID:  userID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.IssueInviteToken: %w", err)
	}

	return signed, nil
}

// ValidateInviteToken parses and validates an invite token, returning the
// board and user it was issued for.
func ValidateInviteToken(secret, tokenString string) (boardID, userID uuid.UUID, err error) {
	claims := &InviteClaims{}

	token, parseErr := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if parseErr != nil || !token.Valid {
		return uuid.Nil, uuid.Nil, fmt.Errorf("auth.ValidateInviteToken: %w", ErrInvalidInvite)
	}

	boardID, err = uuid.Parse(claims.BoardID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("auth.ValidateInviteToken: %w", ErrInvalidInvite)
	}

	userID, err = uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("auth.ValidateInviteToken: %w", ErrInvalidInvite)
	}

	return boardID, userID, nil
}
