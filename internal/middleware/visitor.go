package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	VisitorIDKey      = "visitor_id"
	VisitorCookieName = "gallery_visitor"
	visitorTokenTTL   = 365 * 24 * time.Hour
)

// IssueVisitorToken signs an HS256 token whose subject is the visitor id.
func IssueVisitorToken(secret string, visitorID uuid.UUID, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   visitorID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(visitorTokenTTL)),
	})
	return token.SignedString([]byte(secret))
}

// ParseVisitorToken verifies the signature and expiry and returns the visitor id.
func ParseVisitorToken(secret, tokenString string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, jwt.ErrTokenSignatureInvalid
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid visitor id in token: %w", err)
	}
	return id, nil
}

// VisitorMiddleware identifies anonymous visitors by a signed cookie. A
// missing, expired or forged cookie is replaced with a fresh identity. With
// no secret configured no identity is attached.
func VisitorMiddleware(secret string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		if cookie, err := c.Cookie(VisitorCookieName); err == nil && cookie != "" {
			if id, err := ParseVisitorToken(secret, cookie); err == nil {
				c.Set(VisitorIDKey, id)
				c.Next()
				return
			}
		}

		id := uuid.New()
		tokenString, err := IssueVisitorToken(secret, id, time.Now())
		if err != nil {
			c.Next()
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(VisitorCookieName, tokenString, int(visitorTokenTTL.Seconds()), "/", "", secure, true)
		c.Set(VisitorIDKey, id)
		c.Next()
	}
}

// VisitorID returns the id attached by VisitorMiddleware.
func VisitorID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(VisitorIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
