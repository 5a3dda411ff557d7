package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"presensi/internal/geo"
)

const exchangeName = "location_fanout"

// Publisher fans accepted live-location samples out over AMQP for downstream
// consumers (dashboards, archival). Optional: the server runs without it.
type Publisher struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

type sampleEvent struct {
	UserID     string    `json:"user_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
	Source     string    `json:"source"`
}

// PublishSample publishes one accepted sample on location.sample.<userID>.
func (p *Publisher) PublishSample(ctx context.Context, userID string, fix geo.PositionFix, source string) error {
	body, err := json.Marshal(sampleEvent{
		UserID:     userID,
		Lat:        fix.Lat,
		Lng:        fix.Lng,
		AccuracyM:  fix.AccuracyM,
		CapturedAt: fix.CapturedAt,
		Source:     source,
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx,
		exchangeName,
		"location.sample."+userID,
		false, false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now().UTC(),
			Body:        body,
		})
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
