package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/climate-trend-etl/internal/config"
	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

// RankedMessage is the JSON value published for each ranked unit.
// Non-finite statistics are published as null.
type RankedMessage struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Level       string    `json:"level"`
	Rank        int       `json:"rank"`
	FIPS        string    `json:"fips"`
	Name        string    `json:"name,omitempty"`
	StateName   string    `json:"state_name,omitempty"`
	StateAbbr   string    `json:"state_abbr,omitempty"`
	Population  *float64  `json:"population"`
	Slope       *float64  `json:"slope"`
	PValue      *float64  `json:"p_value"`
	RSquared    *float64  `json:"r_squared"`
	N           int       `json:"n"`
	TempChg     *float64  `json:"tempchg"`
	TempChgC    *float64  `json:"tempchg_c"`
	DecadeChgC  *float64  `json:"decadechg_c"`
	Bin         string    `json:"bin"`
	WindowStart int       `json:"window_start"`
	WindowEnd   int       `json:"window_end"`
}

// Writer publishes ranked rows to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Load publishes the national, state and county rankings in a single
// WriteMessages call. Messages are keyed by FIPS so a unit always lands on
// the same partition.
func (w *Writer) Load(ctx context.Context, a domain.Analysis) error {
	var msgs []kafkago.Message
	add := func(level domain.Level, rows []domain.RankedRow) error {
		for _, r := range rows {
			msg, err := serializeToMessage(a, level, r)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		return nil
	}

	if a.National != nil {
		if err := add(domain.LevelNational, []domain.RankedRow{*a.National}); err != nil {
			return err
		}
	}
	if err := add(domain.LevelState, a.StateAnnual.Rows); err != nil {
		return err
	}
	if err := add(domain.LevelCounty, a.CountyAnnual.Rows); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish ranked rows: %w", err)
	}
	w.logger.Info("published ranked rows", "topic", w.writer.Topic, "messages", len(msgs), "run_id", a.RunID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one ranked row into a Kafka message.
func serializeToMessage(a domain.Analysis, level domain.Level, r domain.RankedRow) (kafkago.Message, error) {
	t := r.Trend
	data, err := json.Marshal(RankedMessage{
		RunID:       a.RunID,
		GeneratedAt: a.GeneratedAt,
		Level:       string(level),
		Rank:        r.Rank,
		FIPS:        r.UnitID,
		Name:        r.Info.Name,
		StateName:   r.Info.StateName,
		StateAbbr:   r.Info.StateAbbr,
		Population:  r.Info.Population,
		Slope:       finite(t.Slope),
		PValue:      finite(t.PValue),
		RSquared:    finite(t.RSquared),
		N:           t.N,
		TempChg:     finite(t.TempChg),
		TempChgC:    finite(t.TempChgC),
		DecadeChgC:  finite(t.DecadeChgC),
		Bin:         r.Bin.String(),
		WindowStart: a.Window.Start,
		WindowEnd:   a.Window.End,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s row %s: %w", level, r.UnitID, err)
	}
	return kafkago.Message{
		Key:   []byte(r.UnitID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "level", Value: []byte(level)},
			{Key: "generated_at", Value: []byte(a.GeneratedAt.Format(time.RFC3339))},
			{Key: "run_id", Value: []byte(a.RunID)},
		},
	}, nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
