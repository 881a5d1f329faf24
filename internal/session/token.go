package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/hams/portal-server-go/internal/errors"
	"github.com/hams/portal-server-go/internal/model"
)

// Claims carried by the hospital login token.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// DecodeToken reads the role, subject and expiry claims out of a login
// token. The portal does not hold the signing key; the remote login service
// is the authority on token validity, so claims are read without signature
// verification and drive only the local session lifecycle. A token that
// cannot be decoded yields CorruptSession and is never retried.
//
// Expiry is NOT checked here: an expired token still decodes, so the caller
// can distinguish ExpiredSession from CorruptSession.
func DecodeToken(raw string) (*model.Session, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return nil, apperrors.CorruptSession(err)
	}

	if claims.ExpiresAt == nil {
		return nil, apperrors.CorruptSession(fmt.Errorf("token has no exp claim"))
	}
	if claims.UserID == "" {
		return nil, apperrors.CorruptSession(fmt.Errorf("token has no userId claim"))
	}
	role := model.Role(claims.Role)
	if !role.Valid() {
		return nil, apperrors.CorruptSession(fmt.Errorf("unknown role claim %q", claims.Role))
	}

	return &model.Session{
		Token:     raw,
		Role:      role,
		SubjectID: claims.UserID,
		Email:     claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
