package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestPurchaseLimiter_Allow(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	limiter := NewPurchaseLimiter(db, 10, time.Minute)

	redisMock.ExpectIncr("ratelimit:buy:buyer").SetVal(1)
	redisMock.ExpectExpire("ratelimit:buy:buyer", time.Minute).SetVal(true)

	assert.True(t, limiter.Allow(context.Background(), "buyer"))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestPurchaseLimiter_AtLimit(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	limiter := NewPurchaseLimiter(db, 10, time.Minute)

	redisMock.ExpectIncr("ratelimit:buy:buyer").SetVal(10)
	assert.True(t, limiter.Allow(context.Background(), "buyer"))

	redisMock.ExpectIncr("ratelimit:buy:buyer").SetVal(11)
	assert.False(t, limiter.Allow(context.Background(), "buyer"))

	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestPurchaseLimiter_FailsOpen(t *testing.T) {
	db, redisMock := redismock.NewClientMock()
	limiter := NewPurchaseLimiter(db, 10, time.Minute)

	redisMock.ExpectIncr("ratelimit:buy:buyer").SetErr(errors.New("connection refused"))

	assert.True(t, limiter.Allow(context.Background(), "buyer"))
}
