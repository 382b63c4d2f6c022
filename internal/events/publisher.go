// Package events announces bookings to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const Channel = "interview-events"

// BookingEvent is published after a slot is claimed.
type BookingEvent struct {
	Type         string    `json:"type"`
	SlotID       string    `json:"slotId"`
	CandidateRef string    `json:"candidateRef"`
	MeetingType  string    `json:"meetingType"`
	MeetingKind  string    `json:"meetingKind"`
	JoinURL      string    `json:"joinUrl,omitempty"`
	RoomEmail    string    `json:"roomEmail,omitempty"`
	EmailSent    bool      `json:"emailSent"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	At           time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev BookingEvent) error
}

// RedisPublisher publishes JSON events on Channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *log.Logger
}

// NewRedisPublisher parses a redis:// URL and pings the server.
func NewRedisPublisher(ctx context.Context, url string, logger *log.Logger) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisPublisher{client: client, channel: Channel, logger: logger}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, ev BookingEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	n, err := p.client.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	p.logger.Printf("event %s slot=%s published to %s (%d subscriber(s))", ev.Type, ev.SlotID, p.channel, n)
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// NopPublisher drops events. Used when REDIS_URL is unset.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }
