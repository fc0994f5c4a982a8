package services

import (
	"context"
	"fmt"
	"log/slog"

	"regdash/internal/amqp"
	"regdash/internal/core"
	"regdash/internal/sources"
)

// ImportPublisher announces a freshly written table to the import worker.
type ImportPublisher interface {
	PublishImportRequest(ctx context.Context, msg *amqp.ImportRequestMessage) error
}

// ImportService writes a registrations table to its destination and, when a
// publisher is configured, enqueues an import request for it.
type ImportService struct {
	writer    sources.ObservationWriter
	publisher ImportPublisher
}

func NewImportService(writer sources.ObservationWriter, publisher ImportPublisher) *ImportService {
	return &ImportService{writer: writer, publisher: publisher}
}

// Publish writes obs and returns the import request that was sent, or nil
// when no publisher is configured. A failed publish is returned as an error;
// the written table is left in place.
func (s *ImportService) Publish(ctx context.Context, source string, obs []core.Observation) (*amqp.ImportRequestMessage, error) {
	if err := s.writer.WriteObservations(ctx, obs); err != nil {
		return nil, fmt.Errorf("write observations: %w", err)
	}
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping import request", "source", source)
		return nil, nil
	}

	msg := amqp.NewImportRequestMessage(source)
	if err := s.publisher.PublishImportRequest(ctx, msg); err != nil {
		return nil, fmt.Errorf("publish import request: %w", err)
	}
	return msg, nil
}
