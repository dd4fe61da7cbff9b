//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/enso-eruption-analysis/internal/adapter/kafka"
	"github.com/couchcryptid/enso-eruption-analysis/internal/config"
	"github.com/couchcryptid/enso-eruption-analysis/internal/domain"
	"github.com/couchcryptid/enso-eruption-analysis/internal/enso"
	"github.com/couchcryptid/enso-eruption-analysis/internal/nino"
	"github.com/couchcryptid/enso-eruption-analysis/internal/observability"
	"github.com/couchcryptid/enso-eruption-analysis/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// reportMessage holds a deserialized report read from the sink topic.
type reportMessage struct {
	Report  domain.ExperimentReport
	Key     string
	Headers map[string]string
}

// readReport reads a single message from the sink consumer and deserializes it.
func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) reportMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.ExperimentReport
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal sink message")

	return reportMessage{Report: report, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newTransformer(t *testing.T, metrics *observability.Metrics) *pipeline.AnalysisTransformer {
	t.Helper()
	cfg := enso.DefaultConfig()
	cfg.PostWindow = 12
	indexer := nino.NewIndexer(8)
	analyzer, err := enso.NewAnalyzer(cfg, indexer)
	require.NoError(t, err)
	return pipeline.NewTransformer(analyzer, nil, indexer, discardLogger(), metrics)
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
		MaxBytes:    16 << 20,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (Extractor) and
// kafka.Writer (Loader) correctly round-trip an ensemble through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	fx := loadFixture(t)
	ens := fx.Ensembles[0]
	payload := envelope(t, ens)

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{Key: []byte(ens.RunID), Value: payload}))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte(ens.RunID), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	out, err := newTransformer(t, observability.NewMetricsForTesting()).Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	rm := readReport(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, ens.RunID, rm.Key)
	assert.Equal(t, string(ens.Onset), rm.Headers["onset"])
	assert.Equal(t, "TS", rm.Headers["variable"])
	_, err = time.Parse(time.RFC3339, rm.Headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	assert.Equal(t, ens.Onset, rm.Report.Onset)
	assert.Equal(t, fx.Manifest.Expected[ens.Onset], rm.Report.Classification.Labels())
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer)
// with real Kafka and verifies one report per onset with the planted phases.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	fx := loadFixture(t)
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(fx.Ensembles))
	for _, ens := range fx.Ensembles {
		msgs = append(msgs, kafkago.Message{Key: []byte(ens.RunID), Value: envelope(t, ens)})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(t, metrics), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	received := make(map[domain.Onset]reportMessage, len(fx.Ensembles))
	for len(received) < len(fx.Ensembles) {
		rm := readReport(ctx, t, consumer)
		received[rm.Report.Onset] = rm
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	for _, onset := range domain.Onsets {
		rm, ok := received[onset]
		require.True(t, ok, "missing report for %s", onset)
		assert.Equal(t, "integration-run", rm.Key)
		assert.Equal(t, fx.Manifest.Expected[onset], rm.Report.Classification.Labels(), onset)
		for _, metric := range []string{domain.MetricGlobalMeanTS, domain.MetricNino34} {
			require.Contains(t, rm.Report.Composites, metric)
			assert.Len(t, rm.Report.PostWindowMeans[metric], 6)
		}
	}

	status := p.Status()
	assert.True(t, status.Ready)
	assert.Equal(t, int64(4), status.Published)
	assert.Equal(t, "integration-run", status.LastRunID)
}

// TestPipelineTransformError verifies that an invalid message (poison pill) is
// skipped and the pipeline continues processing valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	fx := loadFixture(t)
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("short"), Value: []byte(`{"onset":"April_1x","members":[1],"steps":3,"lat":[0],"lon":[190],"data":[0,0,0]}`)},
		kafkago.Message{Key: []byte("good"), Value: envelope(t, fx.Ensembles[2])},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(t, metrics), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid ensemble should appear on the sink topic.
	consumer := sinkConsumer(t, broker)
	rm := readReport(ctx, t, consumer)
	assert.Equal(t, domain.July, rm.Report.Onset)

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
	assert.Equal(t, int64(2), p.Status().Failed)
}
