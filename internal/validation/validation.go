package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"pushledger/internal/constants"
	"pushledger/internal/errors"
	"pushledger/internal/models"
)

// e164Regex is the international numbering-plan format: a leading +, first
// digit 1-9, at most 15 digits total.
var e164Regex = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// webhookPayload mirrors the wire shape of a delivery. Pointer fields
// distinguish absent keys from zero values.
type webhookPayload struct {
	MessageID *string `json:"message_id"`
	From      *string `json:"from"`
	To        *string `json:"to"`
	Ts        *string `json:"ts"`
	Text      *string `json:"text"`
}

// ValidatePhoneNumber checks the E.164 format
func ValidatePhoneNumber(field, phone string) error {
	if !e164Regex.MatchString(phone) {
		return errors.NewValidationError(field, "must be an E.164 phone number")
	}
	return nil
}

// ValidateTimestamp checks that ts is ISO-8601 with a literal Z designator
// and parses as a real date-time
func ValidateTimestamp(ts string) error {
	if !strings.HasSuffix(ts, "Z") {
		return errors.NewValidationError("ts", "timestamp must end with Z")
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		return errors.NewValidationError("ts", "timestamp is not a valid date-time")
	}
	return nil
}

// ParseMessage parses authenticated raw bytes into a validated Message.
// Any structural or field-level failure aborts with a VALIDATION_FAILED
// error naming the offending field; there is no partial acceptance. The
// returned Message carries no created_at, which the store assigns.
func ParseMessage(raw []byte) (*models.Message, error) {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.NewValidationError("body", "malformed JSON payload")
	}

	if payload.MessageID == nil || *payload.MessageID == "" {
		return nil, errors.NewValidationError("message_id", "message_id is required")
	}
	if payload.From == nil {
		return nil, errors.NewValidationError("from", "from is required")
	}
	if payload.To == nil {
		return nil, errors.NewValidationError("to", "to is required")
	}
	if payload.Ts == nil {
		return nil, errors.NewValidationError("ts", "ts is required")
	}

	if err := ValidatePhoneNumber("from", *payload.From); err != nil {
		return nil, err
	}
	if err := ValidatePhoneNumber("to", *payload.To); err != nil {
		return nil, err
	}
	if err := ValidateTimestamp(*payload.Ts); err != nil {
		return nil, err
	}

	if payload.Text != nil && len([]rune(*payload.Text)) > constants.MaxTextLength {
		return nil, errors.NewValidationError("text",
			fmt.Sprintf("text too long (max %d characters)", constants.MaxTextLength))
	}

	return &models.Message{
		MessageID: *payload.MessageID,
		From:      *payload.From,
		To:        *payload.To,
		Ts:        *payload.Ts,
		Text:      payload.Text,
	}, nil
}
