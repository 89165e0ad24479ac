// Package events publishes task lifecycle events.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)

// Event describes a change to a task.
type Event struct {
	Type    string    `json:"type"`
	TaskID  uint      `json:"task_id"`
	OwnerID uint      `json:"owner_id"`
	Title   string    `json:"title"`
	At      time.Time `json:"at"`
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
