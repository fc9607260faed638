// Package auth turns bearer tokens into the caller identity the collaboration
// service consumes.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"github.com/storyloom/collab/internal/apperrors"
	"github.com/storyloom/collab/internal/collab"
)

const callerKey = "collab.caller"

// Claims is the token payload issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier returns a Verifier. issuer may be empty to accept any issuer.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{secret: []byte(secret), parser: jwt.NewParser(opts...)}, nil
}

// Verify parses raw and returns the caller it identifies.
func (v *Verifier) Verify(raw string) (collab.Caller, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return collab.Caller{}, fmt.Errorf("parsing token: %w", err)
	}
	if claims.Subject == "" {
		return collab.Caller{}, errors.New("token has no subject")
	}
	return collab.Caller{
		UID:           claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// IssueToken signs a token for c. Used by the CLI and black-box tests.
func IssueToken(secret, issuer string, c collab.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		Name:          c.Name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Middleware rejects requests without a valid bearer token and stores the
// caller on the gin context.
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			apperrors.Abort(c, apperrors.New(apperrors.CodeUnauthenticated, "missing bearer token"))
			return
		}

		caller, err := v.Verify(strings.TrimSpace(raw))
		if err != nil {
			log.WithError(err).WithField("path", c.Request.URL.Path).Debug("rejected bearer token")
			apperrors.Abort(c, apperrors.New(apperrors.CodeUnauthenticated, "invalid bearer token"))
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFromContext returns the caller stored by Middleware.
func CallerFromContext(c *gin.Context) (collab.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return collab.Caller{}, false
	}
	caller, ok := v.(collab.Caller)
	return caller, ok
}
