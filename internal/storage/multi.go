package storage

import (
	"context"

	"pairpool/internal/model"
)

// MultiSink fans out each batch to every underlying sink in order.
type MultiSink struct {
	sinks []EventSink
}

func NewMultiSink(sinks ...EventSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Append(ctx context.Context, events []model.EventRecord) error {
	for _, sink := range m.sinks {
		if err := sink.Append(ctx, events); err != nil {
			return err
		}
	}
	return nil
}
