package facilitator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementKeyDiscriminatesFields(t *testing.T) {
	base := SettleRequest{APIKey: "csk_a", PayTo: "dest", Amount: 100, RequestID: "r1"}
	key := GenerateSettlementKey(base)
	assert.Equal(t, key, GenerateSettlementKey(base))

	variants := []SettleRequest{
		{APIKey: "csk_b", PayTo: "dest", Amount: 100, RequestID: "r1"},
		{APIKey: "csk_a", PayTo: "other", Amount: 100, RequestID: "r1"},
		{APIKey: "csk_a", PayTo: "dest", Amount: 101, RequestID: "r1"},
		{APIKey: "csk_a", PayTo: "dest", Amount: 100, RequestID: "r2"},
	}
	for _, v := range variants {
		assert.NotEqual(t, key, GenerateSettlementKey(v))
	}
}

func TestSettlementCacheCompleteServesDuplicates(t *testing.T) {
	cache := NewSettlementCache(DefaultSettlementTTL)
	key := GenerateSettlementKey(SettleRequest{APIKey: "csk_a", Amount: 1, RequestID: "r1"})

	status, cached, done := cache.CheckAndMark(key)
	require.Equal(t, StatusNotFound, status)
	require.Nil(t, cached)
	require.NotNil(t, done)

	response := &SettleResponse{Success: true, Signature: "sig-1"}
	cache.Complete(key, response, done)

	status, cached, _ = cache.CheckAndMark(key)
	assert.Equal(t, StatusCached, status)
	require.NotNil(t, cached)
	assert.Equal(t, "sig-1", cached.Signature)
}

func TestSettlementCacheFailLeavesRetryable(t *testing.T) {
	cache := NewSettlementCache(DefaultSettlementTTL)
	key := "k"

	status, _, done := cache.CheckAndMark(key)
	require.Equal(t, StatusNotFound, status)
	cache.Fail(key, done)

	assert.Nil(t, cache.Get(key))

	// The next request gets the in-flight marker again.
	status, _, done = cache.CheckAndMark(key)
	assert.Equal(t, StatusNotFound, status)
	cache.Fail(key, done)
}

func TestSettlementCacheCoalescesInFlight(t *testing.T) {
	cache := NewSettlementCache(DefaultSettlementTTL)
	key := "k"

	_, _, holderDone := cache.CheckAndMark(key)

	status, _, waiterDone := cache.CheckAndMark(key)
	require.Equal(t, StatusInFlight, status)
	require.Equal(t, holderDone, waiterDone)

	got := make(chan *SettleResponse, 1)
	go func() {
		res, err := cache.WaitForResult(context.Background(), key, waiterDone)
		assert.NoError(t, err)
		got <- res
	}()

	cache.Complete(key, &SettleResponse{Success: true, Signature: "sig-2"}, holderDone)

	select {
	case res := <-got:
		require.NotNil(t, res)
		assert.Equal(t, "sig-2", res.Signature)
	case <-time.After(time.Second):
		t.Fatal("waiter never woke")
	}
}

func TestSettlementCacheWaiterSeesHolderFailure(t *testing.T) {
	cache := NewSettlementCache(DefaultSettlementTTL)
	key := "k"

	_, _, holderDone := cache.CheckAndMark(key)
	status, _, waiterDone := cache.CheckAndMark(key)
	require.Equal(t, StatusInFlight, status)

	cache.Fail(key, holderDone)

	res, err := cache.WaitForResult(context.Background(), key, waiterDone)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestSettlementCacheWaitRespectsContext(t *testing.T) {
	cache := NewSettlementCache(DefaultSettlementTTL)
	_, _, done := cache.CheckAndMark("k")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := cache.WaitForResult(ctx, "k", done)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSettlementCacheExpiry(t *testing.T) {
	cache := NewSettlementCache(time.Millisecond)
	key := "k"

	_, _, done := cache.CheckAndMark(key)
	cache.Complete(key, &SettleResponse{Success: true, Signature: "sig-3"}, done)

	time.Sleep(5 * time.Millisecond)

	assert.Nil(t, cache.Get(key))
	status, _, done := cache.CheckAndMark(key)
	assert.Equal(t, StatusNotFound, status)
	cache.Fail(key, done)
}
