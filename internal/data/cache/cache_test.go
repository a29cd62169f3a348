package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/cryptovet/internal/domain"
)

func sampleSeries() domain.Series {
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	return domain.Series{
		{Timestamp: start, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10},
		{Timestamp: start.Add(time.Hour), Open: 100.5, High: 102, Low: 100, Close: 101, Volume: 11},
	}
}

func TestKeyIsDeterministic(t *testing.T) {
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	a := Key("BTC/USD", time.Hour, start, end)
	b := Key("BTC/USD", time.Hour, start, end)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "BTC/USD")
	assert.Contains(t, a, "60m")

	other := Key("ETH/USD", time.Hour, start, end)
	assert.NotEqual(t, a, other)
}

func TestGetMissIsNotAnError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, time.Minute)

	mock.ExpectGet("candles:absent").RedisNil()

	series, hit, err := c.Get(context.Background(), "candles:absent")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, series)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutThenGetRoundTrip(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, time.Minute)

	series := sampleSeries()
	payload, err := json.Marshal(series)
	require.NoError(t, err)

	key := Key("BTC/USD", time.Hour, series[0].Timestamp, series[1].Timestamp)

	mock.ExpectSet(key, payload, time.Minute).SetVal("OK")
	require.NoError(t, c.Put(context.Background(), key, series))

	mock.ExpectGet(key).SetVal(string(payload))
	got, hit, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, got, 2)
	assert.Equal(t, series[0].Close, got[0].Close)
	assert.True(t, series[1].Timestamp.Equal(got[1].Timestamp))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCorruptPayloadIsAnError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, time.Minute)

	mock.ExpectGet("candles:bad").SetVal("{not json")

	_, _, err := c.Get(context.Background(), "candles:bad")
	assert.Error(t, err)
}
