package limiter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis 按固定结果应答脚本调用
type fakeRedis struct {
	reply   []interface{}
	err     error
	lastKey string
	args    []interface{}
	deleted []string
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx, "eval")
	f.lastKey = keys[0]
	f.args = args
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	cmd.SetVal(f.reply)
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	f.deleted = append(f.deleted, keys...)
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func TestTokenBucketLimiter_Allow(t *testing.T) {
	client := &fakeRedis{reply: []interface{}{int64(1), int64(9), int64(0)}}
	tb := NewTokenBucketLimiter(client, Config{Rate: 5, Window: time.Second, Burst: 10})

	result, err := tb.Allow(context.Background(), "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, int64(9), result.Remaining)
	assert.Equal(t, "limiter:tb:ip:1.2.3.4", client.lastKey)
	assert.Equal(t, []interface{}{int64(10), int64(5), int64(1000)}, client.args[:3])
}

func TestTokenBucketLimiter_Rejected(t *testing.T) {
	client := &fakeRedis{reply: []interface{}{int64(0), int64(0), int64(200)}}
	tb := NewTokenBucketLimiter(client, Config{Rate: 5, Window: time.Second})

	result, err := tb.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 200*time.Millisecond, result.RetryAfter)
}

func TestTokenBucketLimiter_Errors(t *testing.T) {
	tb := NewTokenBucketLimiter(&fakeRedis{err: errors.New("down")}, Config{})
	_, err := tb.Allow(context.Background(), "k")
	assert.Error(t, err)

	tb = NewTokenBucketLimiter(&fakeRedis{reply: []interface{}{int64(1)}}, Config{})
	_, err = tb.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestTokenBucketLimiter_Reset(t *testing.T) {
	client := &fakeRedis{}
	tb := NewTokenBucketLimiter(client, Config{KeyPrefix: "rl"})
	require.NoError(t, tb.Reset(context.Background(), "k"))
	assert.Equal(t, []string{"rl:k"}, client.deleted)
}

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(Config{Rate: 1, Window: time.Hour, Burst: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d", i)
	}
	result, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Greater(t, result.RetryAfter, time.Duration(0))

	// 不同的 key 各自计数
	result, err = l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	require.NoError(t, l.Reset(ctx, "a"))
	result, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestNew_PicksBackend(t *testing.T) {
	_, ok := New(nil, Config{}).(*LocalLimiter)
	assert.True(t, ok)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	_, ok = New(client, Config{}).(*TokenBucketLimiter)
	assert.True(t, ok)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", RateLimitMiddleware(MiddlewareConfig{
		Limiter: NewLocalLimiter(Config{Rate: 1, Window: time.Hour, Burst: 1}),
	}), func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0", rr.Header().Get(RemainingHeader))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(RetryAfterHeader))
}

func TestRateLimitMiddleware_FailOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", RateLimitMiddleware(MiddlewareConfig{
		Limiter: NewTokenBucketLimiter(&fakeRedis{err: errors.New("down")}, Config{}),
	}), func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
