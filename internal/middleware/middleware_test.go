package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-paystub/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	r := setupRouter()
	r.GET("/me", middleware.AuthMiddleware(testSecret), middleware.ExtractUserID(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("company_id")+"/"+c.GetString("user_id_validated"))
	})

	tests := []struct {
		name     string
		setup    func(req *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name: "bearer token",
			setup: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{
					"user_id":    "u-1",
					"company_id": "c-1",
					"exp":        time.Now().Add(time.Hour).Unix(),
				}))
			},
			wantCode: http.StatusOK,
			wantBody: "c-1/u-1",
		},
		{
			name: "cookie token",
			setup: func(req *http.Request) {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: signToken(t, jwt.MapClaims{
					"user_id":    "u-2",
					"company_id": "c-2",
				})})
			},
			wantCode: http.StatusOK,
			wantBody: "c-2/u-2",
		},
		{
			name:     "missing token",
			setup:    func(req *http.Request) {},
			wantCode: http.StatusUnauthorized,
			wantBody: "UNAUTHORIZED",
		},
		{
			name: "expired token",
			setup: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{
					"user_id":    "u-1",
					"company_id": "c-1",
					"exp":        time.Now().Add(-time.Hour).Unix(),
				}))
			},
			wantCode: http.StatusUnauthorized,
			wantBody: "TOKEN_EXPIRED",
		},
		{
			name: "wrong secret",
			setup: func(req *http.Request) {
				token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
					"user_id":    "u-1",
					"company_id": "c-1",
				}).SignedString([]byte("other"))
				req.Header.Set("Authorization", "Bearer "+token)
			},
			wantCode: http.StatusUnauthorized,
			wantBody: "INVALID_TOKEN",
		},
		{
			name: "missing company claim",
			setup: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"user_id": "u-1"}))
			},
			wantCode: http.StatusUnauthorized,
			wantBody: "Company ID not found in token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestRateLimitByUser(t *testing.T) {
	r := setupRouter()
	r.GET("/download", func(c *gin.Context) {
		c.Set("user_id", c.GetHeader("X-User"))
		c.Next()
	}, middleware.RateLimitByUser(rate.Every(time.Hour), 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	call := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/download", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("alice"))
	assert.Equal(t, http.StatusOK, call("alice"))
	assert.Equal(t, http.StatusTooManyRequests, call("alice"))
	assert.Equal(t, http.StatusOK, call("bob"))
}

func TestKeyRateLimiter_ReusesLimiter(t *testing.T) {
	l := middleware.NewKeyRateLimiter(rate.Limit(1), 1)
	assert.Same(t, l.GetLimiter("k"), l.GetLimiter("k"))
	assert.NotSame(t, l.GetLimiter("k"), l.GetLimiter("other"))
}

func TestRequestID(t *testing.T) {
	r := setupRouter()
	r.GET("/", middleware.RequestID(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Body.String())
}

func TestIdempotency(t *testing.T) {
	newRouter := func(mw gin.HandlerFunc, hits *int) *gin.Engine {
		r := setupRouter()
		r.POST("/generate", func(c *gin.Context) {
			c.Set("user_id_validated", "u-1")
			c.Next()
		}, mw, func(c *gin.Context) {
			*hits++
			c.String(http.StatusOK, c.GetString(middleware.IdempotencyCacheKey))
		})
		return r
	}
	post := func(r *gin.Engine, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	cacheKey := "idemp:/generate:u-1:k1"

	t.Run("first request takes the lock", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(cacheKey+":lock", "locked", 10*time.Minute).SetVal(true)

		hits := 0
		w := post(newRouter(middleware.Idempotency(rdb, 10*time.Minute), &hits), "k1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, cacheKey, w.Body.String())
		assert.Equal(t, 1, hits)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replays cached response", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectGet(cacheKey).SetVal(`{"status":200,"body":{"success":true}}`)

		hits := 0
		w := post(newRouter(middleware.Idempotency(rdb, 0), &hits), "k1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
		assert.Zero(t, hits)
	})

	t.Run("replays the original status of an accepted request", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		payload, err := middleware.EncodeCachedResponse(http.StatusAccepted, map[string]string{"request_id": "req-1", "status": "queued"})
		assert.NoError(t, err)
		mock.ExpectGet(cacheKey).SetVal(payload)

		hits := 0
		w := post(newRouter(middleware.Idempotency(rdb, 0), &hits), "k1")

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"request_id":"req-1"`)
		assert.Zero(t, hits)
	})

	t.Run("zero lock ttl falls back to the default", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(cacheKey+":lock", "locked", middleware.DefaultIdempotencyLockTTL).SetVal(true)

		hits := 0
		w := post(newRouter(middleware.Idempotency(rdb, 0), &hits), "k1")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, hits)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("in flight duplicate", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(false)

		hits := 0
		w := post(newRouter(middleware.Idempotency(rdb, 30*time.Second), &hits), "k1")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "PROCESSING")
		assert.Zero(t, hits)
	})

	t.Run("no key passes through", func(t *testing.T) {
		rdb, _ := redismock.NewClientMock()
		hits := 0
		w := post(newRouter(middleware.Idempotency(rdb, 0), &hits), "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, 1, hits)
	})
}
