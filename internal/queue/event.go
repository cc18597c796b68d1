// Package queue carries show events over RabbitMQ: the payload, the
// publisher used by the HTTP handlers and the audit-log consumer.
package queue

import (
    "time"

    "github.com/iliyamo/show-tracker/internal/model"
)

// Event types carried in ShowEvent.Type.
const (
    ShowCreated = "show.created"
    ShowUpdated = "show.updated"
    ShowDeleted = "show.deleted"
)

// DefaultQueue is the durable queue show events are routed to.
const DefaultQueue = "shows.events"

// ShowEvent is published after a show is created, updated or deleted.  It
// carries the record as it looked after the change (before it, for
// deletes) so consumers never need to query the store.
type ShowEvent struct {
    Type         string `json:"type"`
    ShowID       int64  `json:"show_id"`
    Name         string `json:"name"`
    EpisodesSeen int    `json:"episodes_seen"`
    OccurredAt   string `json:"occurred_at"` // RFC3339, UTC
}

// NewShowEvent stamps an event for s with the current UTC time.
func NewShowEvent(eventType string, s model.Show) ShowEvent {
    return ShowEvent{
        Type:         eventType,
        ShowID:       s.ID,
        Name:         s.Name,
        EpisodesSeen: s.EpisodesSeen,
        OccurredAt:   time.Now().UTC().Format(time.RFC3339),
    }
}
