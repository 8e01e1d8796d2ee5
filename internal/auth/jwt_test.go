package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func testTokenService() TokenService {
	return TokenService{
		Secret:   []byte("test-secret"),
		Issuer:   "modpanel",
		Duration: time.Hour,
	}
}

func testModerator() *Moderator {
	return &Moderator{
		ID:           "mod-1",
		Username:     "alice",
		Email:        "alice@example.com",
		TokenVersion: 3,
	}
}

func TestSignAndParse(t *testing.T) {
	ts := testTokenService()

	token, exp, err := ts.Sign(testModerator())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry in the past: %v", exp)
	}

	claims, err := ts.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.ModeratorID != "mod-1" || claims.Username != "alice" || claims.TokenVersion != 3 {
		t.Errorf("claims round trip wrong: %+v", claims)
	}
	if claims.Issuer != "modpanel" {
		t.Errorf("issuer = %q, want modpanel", claims.Issuer)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	ts := testTokenService()
	token, _, err := ts.Sign(testModerator())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	other := testTokenService()
	other.Secret = []byte("different-secret")
	if _, err := other.Parse(token); err == nil {
		t.Error("token signed with another secret was accepted")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	ts := testTokenService()
	ts.Duration = -time.Hour

	token, _, err := ts.Sign(testModerator())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if _, err := ts.Parse(token); err == nil {
		t.Error("expired token was accepted")
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := testTokenService()

	r := gin.New()
	r.GET("/me", AuthMiddleware(ts, nil), func(c *gin.Context) {
		claims := MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{"id": claims.ModeratorID})
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status %d, want %d", w.Code, tc.want)
			}
		})
	}

	t.Run("valid token", func(t *testing.T) {
		token, _, err := ts.Sign(testModerator())
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status %d, body %s", w.Code, w.Body.String())
		}
	})
}
