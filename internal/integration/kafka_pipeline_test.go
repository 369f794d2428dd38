//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/climate-trend-etl/internal/adapter/input"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/output"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/storage"
	"github.com/couchcryptid/climate-trend-etl/internal/config"
	"github.com/couchcryptid/climate-trend-etl/internal/domain"
	"github.com/couchcryptid/climate-trend-etl/internal/mockdata"
	"github.com/couchcryptid/climate-trend-etl/internal/observability"
	"github.com/couchcryptid/climate-trend-etl/internal/pipeline"
)

const testTopic = "test-climate-trends"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker for the duration of the test.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("climtrend-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	}))
}

type publishedRow struct {
	Row     kafka.RankedMessage
	Key     string
	Headers map[string]string
}

func readAll(ctx context.Context, t *testing.T, broker string, n int) []publishedRow {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]publishedRow, 0, n)
	for len(out) < n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read published row %d of %d", len(out)+1, n)

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		var row kafka.RankedMessage
		require.NoError(t, json.Unmarshal(msg.Value, &row))
		out = append(out, publishedRow{Row: row, Key: string(msg.Key), Headers: headers})
	}
	return out
}

// TestPipelinePublishesRankedRows runs the full pipeline over generated input
// and checks that every ranked row reaches the topic with its headers.
func TestPipelinePublishesRankedRows(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	inDir, outDir := t.TempDir(), t.TempDir()
	require.NoError(t, mockdata.WriteDir(inDir, mockdata.Default()))

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	sink, err := storage.NewLocalSink(outDir)
	require.NoError(t, err)
	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(
		input.NewExtractor(inDir, logger, metrics),
		pipeline.NewTransformer(domain.AnalyzeOptions{}, logger, metrics),
		pipeline.Loaders{output.NewLoader(sink, output.Options{}, logger, metrics), writer},
		logger, metrics,
	)
	require.NoError(t, p.Run(ctx))

	// 1 national + 1 state + 3 counties.
	rows := readAll(ctx, t, broker, 5)

	byKey := make(map[string]publishedRow, len(rows))
	runIDs := make(map[string]struct{})
	for _, r := range rows {
		byKey[r.Key] = r
		runIDs[r.Headers["run_id"]] = struct{}{}
		_, err := time.Parse(time.RFC3339, r.Headers["generated_at"])
		assert.NoError(t, err, "generated_at should be RFC3339")
	}
	assert.Len(t, runIDs, 1, "one run id per run")

	require.Contains(t, byKey, "01005")
	barbour := byKey["01005"]
	assert.Equal(t, "county", barbour.Headers["level"])
	assert.Equal(t, 1, barbour.Row.Rank)
	assert.Equal(t, "Barbour", barbour.Row.Name)
	assert.Equal(t, "(2, inf)", barbour.Row.Bin)
	require.NotNil(t, barbour.Row.TempChgC)
	assert.InDelta(t, 0.03*124/1.8, *barbour.Row.TempChgC, 1e-6)

	require.Contains(t, byKey, "01")
	assert.Equal(t, "state", byKey["01"].Headers["level"])
	require.Contains(t, byKey, domain.NationalUnitID)
	assert.Equal(t, "national", byKey[domain.NationalUnitID].Headers["level"])
}
