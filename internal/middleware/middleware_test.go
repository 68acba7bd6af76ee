package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/humanize-golang/internal/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(issuer *auth.Issuer, l *Limiter) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(issuer), RateLimit(l))
	r.GET("/who", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userID":    c.GetInt64(UserIDKey),
			"sessionID": c.GetString(SessionIDKey),
		})
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	iss := auth.NewIssuer("secret")
	r := newRouter(iss, nil)

	token, sess, err := iss.GenerateToken(9)
	require.NoError(t, err)

	w := get(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userID":9`)
	assert.Contains(t, w.Body.String(), sess.SessionID)

	for name, header := range map[string]string{
		"missing":   "",
		"no bearer": token,
		"bad token": "Bearer nope",
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, get(r, header).Code)
		})
	}
}

func TestRateLimitPerUser(t *testing.T) {
	iss := auth.NewIssuer("secret")
	l := NewLimiter(0.001, 2, time.Minute)
	r := newRouter(iss, l)

	alice, _, err := iss.GenerateToken(1)
	require.NoError(t, err)
	bob, _, err := iss.GenerateToken(2)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(r, "Bearer "+alice).Code)
	assert.Equal(t, http.StatusOK, get(r, "Bearer "+alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "Bearer "+alice).Code)

	assert.Equal(t, http.StatusOK, get(r, "Bearer "+bob).Code)
	assert.Equal(t, 2, l.Len())
}

func TestLimiterSweep(t *testing.T) {
	l := NewLimiter(1, 1, time.Minute)
	start := time.Now()
	l.now = func() time.Time { return start }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.Equal(t, 0, l.Sweep(start.Add(30*time.Second)))
	assert.Equal(t, 1, l.Sweep(start.Add(2*time.Minute)))
	assert.Zero(t, l.Len())
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var l *Limiter
	assert.Nil(t, NewLimiter(0, 1, 0))
	assert.True(t, l.Allow("x"))
	assert.Zero(t, l.Sweep(time.Now()))
}
