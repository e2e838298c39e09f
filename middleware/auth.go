// Package middleware holds the gin middleware that authenticates callers
// from a bearer token and gates routes by role.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/civicpulse/mayoralert/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

// Identity is the authenticated caller attached to a request by Protect.
type Identity struct {
	UserID string
	Role   types.Role
}

type identityContextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity stored by Protect.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// Auth verifies HS256 bearer tokens signed with a shared secret.
type Auth struct {
	secret []byte
	logger types.Logger
}

func NewAuth(secret string, logger types.Logger) (*Auth, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: JWT secret is required", types.ErrConfiguration)
	}

	if logger == nil {
		logger = types.NoopLogger()
	}

	return &Auth{secret: []byte(secret), logger: logger}, nil
}

// Protect rejects requests without a valid bearer token with 401 and
// attaches the caller's Identity to both the gin context and the request
// context.
func (a *Auth) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")) == "" {
			abort(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		id, err := a.ParseToken(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			a.logger.WithField("path", c.FullPath()).Debugf("Token rejected: %s", err)
			abort(c, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// ParseToken validates tokenString and extracts the caller identity from its
// id (or userId, or sub) and role claims.
func (a *Auth) ParseToken(tokenString string) (Identity, error) {
	claims := jwt.MapClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, err
	}

	userID := ""

	for _, key := range []string{"id", "userId", "sub"} {
		if userID = claimString(claims[key]); userID != "" {
			break
		}
	}

	if userID == "" {
		return Identity{}, errors.New("token has no user id claim")
	}

	return Identity{UserID: userID, Role: types.Role(claimString(claims["role"]))}, nil
}

// SignToken issues an HS256 token for id that expires after ttl.
func (a *Auth) SignToken(id Identity, ttl time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   id.UserID,
		"role": string(id.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})

	return token.SignedString(a.secret)
}

// Authorize rejects callers whose role is not one of roles with 403. It must
// run after Protect.
func Authorize(roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(identityKey)
		if !ok {
			abort(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		id, _ := v.(Identity)

		if !slices.Contains(roles, id.Role) {
			abort(c, http.StatusForbidden, fmt.Sprintf("User role %s is not authorized to access this route", id.Role))
			return
		}

		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64: // numeric ids arrive as JSON numbers
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
