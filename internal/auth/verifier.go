package auth

import (
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"

	"relaychat/backend/internal/models"
)

// Sentinel failures of credential verification. Boundary handlers translate
// all of them into a generic UNAUTHORIZED result.
var (
	// ErrMissingCredential means no credential string was presented.
	ErrMissingCredential = errors.New("auth: missing credential")
	// ErrSecretNotConfigured means the verifying secret is absent. This is a
	// deployment defect, but it is reported per call rather than crashing the
	// process.
	ErrSecretNotConfigured = errors.New("auth: verifying secret not configured")
	// ErrInvalidCredential covers a bad signature, a wrong signing method or
	// an expired token.
	ErrInvalidCredential = errors.New("auth: invalid or expired credential")
	// ErrMalformedClaims means the token verified but carries no subject id.
	ErrMalformedClaims = errors.New("auth: credential payload missing subject")
)

// Principal is an authenticated identity. It is produced only by the
// Verifier and is immutable once produced.
type Principal struct {
	SubjectID string
	Role      models.Role
}

// Verifier validates bearer credentials against a shared HMAC secret.
// It is stateless and safe for concurrent use.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the credential's signature and expiry and extracts the
// subject id and role claim. An absent or unrecognized role claim maps to
// USER, never to anything higher.
func (v *Verifier) Verify(credential string) (*Principal, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}
	if len(v.secret) == 0 {
		return nil, ErrSecretNotConfigured
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredential
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrMalformedClaims
	}

	roleClaim, _ := claims["role"].(string)
	return &Principal{
		SubjectID: sub,
		Role:      models.ParseRole(roleClaim),
	}, nil
}
