// Package pubsub implements a sink that publishes game records to Google
// Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// Sink publishes one message per accepted game record. Sports and schools are
// reference data for relational sinks and are not published.
type Sink struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New connects to Pub/Sub and binds the topic.
func New(ctx context.Context, projectID, topicName string) (*Sink, error) {
	if projectID == "" || topicName == "" {
		return nil, fmt.Errorf("pubsub project and topic are required")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &Sink{
		client: client,
		topic:  client.Topic(topicName),
	}, nil
}

// InsertSport is a no-op for the Pub/Sub sink.
func (s *Sink) InsertSport(_ context.Context, _ string) error {
	return nil
}

// InsertSchool is a no-op for the Pub/Sub sink.
func (s *Sink) InsertSchool(_ context.Context, _ string) error {
	return nil
}

// InsertGame publishes the record as JSON with sport and status attributes.
func (s *Sink) InsertGame(ctx context.Context, rec scoreboard.GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game record: %w", err)
	}
	result := s.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"sport":  rec.Sport,
			"status": string(rec.Status),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish game record: %w", err)
	}
	return nil
}

// Close flushes pending publishes and releases the client.
func (s *Sink) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	s.topic.Stop()
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
