package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quill/access"
	"quill/models"
)

const identityKey = "identity"

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// UserLookup resolves the user named by a token.
type UserLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Authenticator issues bearer tokens and turns them back into identities.
// The user is re-read on every request so role changes apply at once.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	users  UserLookup
	log    *slog.Logger
}

func NewAuthenticator(secret string, ttl time.Duration, users UserLookup, log *slog.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		ttl:    ttl,
		users:  users,
		log:    log,
	}
}

// IssueToken signs a token for userID that expires after the configured TTL.
func (a *Authenticator) IssueToken(userID primitive.ObjectID) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// RequireAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip middleware for OPTIONS requests (CORS preflight)
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		user, err := a.authenticate(c)
		if err != nil {
			a.log.Debug("authentication failed", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, token failed"})
			return
		}

		c.Set(identityKey, access.IdentityOf(user))
		c.Next()
	}
}

// OptionalAuth sets the identity when a valid token is present and lets
// anonymous requests through otherwise.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if user, err := a.authenticate(c); err == nil {
				c.Set(identityKey, access.IdentityOf(user))
			}
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := Identity(c)
		if !ok || !access.IsAdmin(caller) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized as an admin"})
			return
		}
		c.Next()
	}
}

// Identity returns the caller set by the auth middleware.
func Identity(c *gin.Context) (access.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return access.Identity{}, false
	}
	caller, ok := v.(access.Identity)
	return caller, ok
}

func (a *Authenticator) authenticate(c *gin.Context) (*models.User, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errors.New("no authorization token provided")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.New("authorization header format must be Bearer <token>")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in token: %w", err)
	}

	return a.users.FindByID(c.Request.Context(), userID)
}
