package storage

import (
	"context"

	"pairpool/internal/model"
)

// EventSink is an append-only destination for audit events.
type EventSink interface {
	Append(ctx context.Context, events []model.EventRecord) error
}
