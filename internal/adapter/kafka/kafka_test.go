package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-trend-etl/internal/config"
	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2020, 1, 15, 12, 0, 0, 0, time.UTC)
	pop := 24881.0
	a := domain.Analysis{RunID: "run-1", GeneratedAt: now, Window: domain.DefaultWindow}
	row := domain.RankedRow{
		Rank:   1,
		UnitID: "01005",
		Info:   domain.UnitInfo{Name: "Barbour", StateName: "Alabama", StateAbbr: "AL", Population: &pop},
		Trend:  domain.Trend{Slope: 0.03, PValue: 1e-20, RSquared: 0.5, N: 125, TempChg: 3.72, TempChgC: 2.0666666666666664},
		Bin:    domain.BinOverTwo,
	}

	msg, err := serializeToMessage(a, domain.LevelCounty, row)
	require.NoError(t, err)

	assert.Equal(t, []byte("01005"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "level", msg.Headers[0].Key)
	assert.Equal(t, []byte("county"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
	assert.Equal(t, []byte("run-1"), msg.Headers[2].Value)

	var got RankedMessage
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "county", got.Level)
	assert.Equal(t, "Barbour", got.Name)
	assert.Equal(t, "(2, inf)", got.Bin)
	assert.Equal(t, 1895, got.WindowStart)
	require.NotNil(t, got.TempChgC)
	assert.InDelta(t, 2.0666666666666664, *got.TempChgC, 1e-15)
	assert.True(t, got.GeneratedAt.Equal(now))
}

func TestSerializeToMessage_NonFinite(t *testing.T) {
	row := domain.RankedRow{UnitID: "01", Trend: domain.Trend{PValue: math.NaN(), N: 2}}

	msg, err := serializeToMessage(domain.Analysis{}, domain.LevelState, row)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"p_value":null`)
	assert.Contains(t, string(msg.Value), `"population":null`)
}

func TestWriter_LoadEmptyAnalysis(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaTopic: "unused"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	// Nothing to publish, so no connection is attempted.
	require.NoError(t, w.Load(t.Context(), domain.Analysis{}))
}
