package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"marketadmin/internal/domain"
)

const (
	sessionKey = "session"
	roleKey    = "userRole"
)

// Auth parses the bearer token into a domain.Session. Tokens are HS256
// with "user_id" and "role" claims; "sid" (or "jti") names the session.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if len(key) == 0 {
			abort(c, http.StatusServiceUnavailable, "authentication is not configured")
			return
		}
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sess, err := ParseSession(strings.TrimSpace(raw), key)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(sessionKey, sess)
		c.Set(roleKey, sess.Role)
		c.Next()
	}
}

// ParseSession validates token and builds the session it describes.
func ParseSession(token string, key []byte) (domain.Session, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Session{}, err
	}

	sess := domain.Session{
		UserID: claimString(claims, "user_id"),
		Role:   domain.NormalizeRole(claimString(claims, "role")),
		Name:   claimString(claims, "name"),
		ID:     claimString(claims, "sid"),
	}
	if sess.ID == "" {
		sess.ID = claimString(claims, "jti")
	}
	if sess.UserID == "" || sess.Role == "" {
		return domain.Session{}, errors.New("token has no user_id or role")
	}
	if sess.ID == "" {
		sess.ID = sess.Role + ":" + sess.UserID
	}
	return sess, nil
}

func claimString(claims jwt.MapClaims, name string) string {
	switch v := claims[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// GetSession returns the session set by Auth.
func GetSession(c *gin.Context) (domain.Session, bool) {
	if c == nil {
		return domain.Session{}, false
	}
	v, ok := c.Get(sessionKey)
	if !ok {
		return domain.Session{}, false
	}
	sess, ok := v.(domain.Session)
	return sess, ok
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"message":    message,
		"request_id": GetRequestID(c),
	})
}
