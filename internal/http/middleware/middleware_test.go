package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var key = []byte("s3cret")

func sign(t *testing.T, method jwt.SigningMethod, k any, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(k)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestParseSession(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	sess, err := ParseSession(sign(t, jwt.SigningMethodHS256, key, jwt.MapClaims{
		"user_id": float64(42), "role": "Vendor", "name": "Sari", "exp": exp,
	}), key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.UserID != "42" || sess.Role != "seller" || sess.Name != "Sari" || sess.ID != "seller:42" {
		t.Fatalf("unexpected session %+v", sess)
	}

	sess, err = ParseSession(sign(t, jwt.SigningMethodHS256, key, jwt.MapClaims{
		"user_id": "u-1", "role": "admin", "jti": "j-9", "exp": exp,
	}), key)
	if err != nil || sess.ID != "j-9" {
		t.Fatalf("expected jti as session id, got %+v %v", sess, err)
	}

	bad := map[string]string{
		"expired": sign(t, jwt.SigningMethodHS256, key, jwt.MapClaims{
			"user_id": "u-1", "role": "admin", "exp": time.Now().Add(-time.Minute).Unix(),
		}),
		"no exp":     sign(t, jwt.SigningMethodHS256, key, jwt.MapClaims{"user_id": "u-1", "role": "admin"}),
		"wrong key":  sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "u-1", "role": "admin", "exp": exp}),
		"wrong alg":  sign(t, jwt.SigningMethodHS512, key, jwt.MapClaims{"user_id": "u-1", "role": "admin", "exp": exp}),
		"no role":    sign(t, jwt.SigningMethodHS256, key, jwt.MapClaims{"user_id": "u-1", "exp": exp}),
		"not a token": "abc.def",
	}
	for name, tok := range bad {
		if _, err := ParseSession(tok, key); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func newEngine(secret string, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	chain := []gin.HandlerFunc{Auth(secret)}
	if len(roles) > 0 {
		chain = append(chain, RequireRoles(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		sess, _ := GetSession(c)
		c.String(http.StatusOK, sess.Role+"|"+sess.ID)
	})
	r.GET("/x", chain...)
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tok := sign(t, jwt.SigningMethodHS256, key, jwt.MapClaims{
		"user_id": "b-1", "role": "buyer", "sid": "s-77", "exp": time.Now().Add(time.Hour).Unix(),
	})

	if w := get(newEngine(string(key)), "Bearer "+tok); w.Code != http.StatusOK || w.Body.String() != "buyer|s-77" {
		t.Fatalf("unexpected response %d %q", w.Code, w.Body.String())
	}
	if w := get(newEngine(string(key)), ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d", w.Code)
	}
	if w := get(newEngine(string(key)), "Token "+tok); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong scheme: got %d", w.Code)
	}
	w := get(newEngine(""), "Bearer "+tok)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unconfigured secret: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"request_id"`) {
		t.Fatalf("error body should carry the request id: %s", w.Body.String())
	}
}

func TestRequireRoles(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	vendor := sign(t, jwt.SigningMethodHS256, key, jwt.MapClaims{"user_id": "1", "role": "vendor", "exp": exp})
	buyer := sign(t, jwt.SigningMethodHS256, key, jwt.MapClaims{"user_id": "2", "role": "buyer", "exp": exp})

	r := newEngine(string(key), "seller", "admin")
	if w := get(r, "Bearer "+vendor); w.Code != http.StatusOK {
		t.Fatalf("vendor should pass as seller, got %d", w.Code)
	}
	if w := get(r, "Bearer "+buyer); w.Code != http.StatusForbidden {
		t.Fatalf("buyer should be forbidden, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("request id not propagated: %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 65))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if len(w.Body.String()) != 36 {
		t.Fatalf("oversized id should be replaced by a uuid, got %q", w.Body.String())
	}
}
