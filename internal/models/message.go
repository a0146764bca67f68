package models

// Message is the persisted record of a single webhook delivery.
// CreatedAt is stamped by the store at first insert and never changes;
// Ts is the sender-asserted event time and the two may diverge.
type Message struct {
	MessageID string  `json:"message_id" db:"message_id"`
	From      string  `json:"from" db:"from_msisdn"`
	To        string  `json:"to" db:"to_msisdn"`
	Ts        string  `json:"ts" db:"ts"`
	Text      *string `json:"text" db:"text"`
	CreatedAt string  `json:"-" db:"created_at"`
}

// IngestOutcome classifies the result of a webhook delivery. Each value is
// counted independently so retried deliveries remain observable.
type IngestOutcome string

const (
	OutcomeCreated          IngestOutcome = "created"
	OutcomeDuplicate        IngestOutcome = "duplicate"
	OutcomeInvalidSignature IngestOutcome = "invalid_signature"
	OutcomeValidationError  IngestOutcome = "validation_error"
)

// QueryFilters narrows a message listing. Zero values mean "no constraint".
// Since is compared lexically against the stored ts strings, mirroring the
// ISO-8601 ordering of uniformly formatted timestamps.
type QueryFilters struct {
	From  string
	Since string
	Q     string
}

// QueryParams describes a paginated listing request.
type QueryParams struct {
	Filters QueryFilters
	Limit   int
	Offset  int
}

// QueryPage is one page of messages plus the total count of rows matching
// the filters regardless of pagination.
type QueryPage struct {
	Data   []Message `json:"data"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// SenderCount is one entry of the per-sender ranking.
type SenderCount struct {
	From  string `json:"from"`
	Count int    `json:"count"`
}

// Stats summarizes the whole store. SendersCount counts the senders present
// in the capped ranking, not the true distinct total; FirstMessageTs and
// LastMessageTs are nil for an empty store.
type Stats struct {
	TotalMessages     int           `json:"total_messages"`
	SendersCount      int           `json:"senders_count"`
	MessagesPerSender []SenderCount `json:"messages_per_sender"`
	FirstMessageTs    *string       `json:"first_message_ts"`
	LastMessageTs     *string       `json:"last_message_ts"`
}
