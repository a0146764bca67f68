package service

import (
	"context"
	"fmt"

	"pushledger/internal/constants"
	"pushledger/internal/errors"
	"pushledger/internal/models"
	"pushledger/internal/privacy"
	"pushledger/internal/validation"

	"github.com/sirupsen/logrus"
)

// MessageStore is the persistence boundary the service depends on. The
// *database.Database type satisfies it.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg *models.Message) (created bool, err error)
	QueryMessages(ctx context.Context, params models.QueryParams) (*models.QueryPage, error)
	GetStats(ctx context.Context) (*models.Stats, error)
	Ping(ctx context.Context) error
}

// MessageService is the ingestion and query surface used by the HTTP layer.
type MessageService interface {
	// Ingest validates authenticated raw bytes and records the message
	// idempotently. The outcome is OutcomeCreated, OutcomeDuplicate, or
	// OutcomeValidationError; err is non-nil for the latter and for
	// storage failures.
	Ingest(ctx context.Context, raw []byte) (models.IngestOutcome, error)
	// Query lists stored messages after validating pagination bounds.
	Query(ctx context.Context, params models.QueryParams) (*models.QueryPage, error)
	// Stats summarizes the whole store.
	Stats(ctx context.Context) (*models.Stats, error)
	// Ready reports whether the store can serve requests.
	Ready(ctx context.Context) error
}

type messageService struct {
	store  MessageStore
	logger *logrus.Logger
}

// NewMessageService creates the message service
func NewMessageService(store MessageStore, logger *logrus.Logger) MessageService {
	return &messageService{
		store:  store,
		logger: logger,
	}
}

func (s *messageService) Ingest(ctx context.Context, raw []byte) (models.IngestOutcome, error) {
	msg, err := validation.ParseMessage(raw)
	if err != nil {
		s.logger.WithFields(errors.LogFields(err)).Warn("Webhook payload failed validation")
		return models.OutcomeValidationError, err
	}

	created, err := s.store.InsertMessage(ctx, msg)
	if err != nil {
		return "", errors.NewDatabaseError("insert", err)
	}

	entry := s.logger.WithFields(logrus.Fields(privacy.MaskSensitiveFields(map[string]interface{}{
		"message_id": msg.MessageID,
		"from":       msg.From,
		"to":         msg.To,
		"ts":         msg.Ts,
	})))

	if !created {
		entry.Info("Duplicate message delivery ignored")
		return models.OutcomeDuplicate, nil
	}

	entry.Info("Message recorded")
	return models.OutcomeCreated, nil
}

func (s *messageService) Query(ctx context.Context, params models.QueryParams) (*models.QueryPage, error) {
	if params.Limit < 1 || params.Limit > constants.MaxQueryLimit {
		return nil, errors.NewInvalidArgumentError("limit",
			fmt.Sprintf("must be between 1 and %d", constants.MaxQueryLimit))
	}
	if params.Offset < 0 {
		return nil, errors.NewInvalidArgumentError("offset", "must not be negative")
	}

	page, err := s.store.QueryMessages(ctx, params)
	if err != nil {
		return nil, errors.NewDatabaseError("query", err)
	}
	return page, nil
}

func (s *messageService) Stats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("stats", err)
	}
	return stats, nil
}

func (s *messageService) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseConnection, "store is not reachable")
	}
	return nil
}
