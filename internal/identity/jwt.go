package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the minimal claim set the core expects an issuer to put on the
// bearer token: a stable subject, plus optional display fields. Unlike
// RoseWrightdev-Video-Conferencing's Validator, this has no JWKS refresh
// loop — Identity here is a thin, swappable consumed interface, not an auth
// server, so a single static verification key is enough.
type Claims struct {
	Name      string `json:"name,omitempty"`
	AvatarRef string `json:"avatar_ref,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HMAC-signed bearer tokens and maps their claims to a
// Profile. The signing key is provided by the external identity issuer out
// of band (e.g. loaded from a secret store by cmd/server).
type JWTResolver struct {
	secret []byte
}

// NewJWTResolver builds a resolver that verifies tokens signed with secret.
func NewJWTResolver(secret []byte) *JWTResolver {
	return &JWTResolver{secret: secret}
}

// Resolve parses and verifies credential as a JWT and extracts a Profile.
// An empty credential resolves to a guest, matching §6's "null user_id"
// contract rather than erroring.
func (r *JWTResolver) Resolve(ctx context.Context, credential string) (Profile, error) {
	if credential == "" {
		return Profile{DisplayName: "Guest"}, nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		return Profile{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return Profile{}, errors.New("token is invalid")
	}

	name := claims.Name
	if name == "" {
		name = claims.Subject
	}

	return Profile{
		UserID:      claims.Subject,
		DisplayName: name,
		AvatarRef:   claims.AvatarRef,
	}, nil
}
