package database

import (
	"context"
	"fmt"
	"strings"

	"pushledger/internal/constants"
	"pushledger/internal/models"
)

// QueryMessages returns one page of messages matching the filters, in
// ascending (ts, message_id) order, plus the total match count independent of
// pagination. The since bound compares ts strings lexically, which matches
// chronological order for uniformly formatted ISO-8601 timestamps.
func (d *Database) QueryMessages(ctx context.Context, params models.QueryParams) (*models.QueryPage, error) {
	var conditions []string
	var args []interface{}

	if params.Filters.From != "" {
		conditions = append(conditions, "from_msisdn = ?")
		args = append(args, params.Filters.From)
	}
	if params.Filters.Since != "" {
		conditions = append(conditions, "ts >= ?")
		args = append(args, params.Filters.Since)
	}
	if params.Filters.Q != "" {
		// Rows with NULL text never match: LIKE against NULL is NULL.
		conditions = append(conditions, "LOWER(text) LIKE ?")
		args = append(args, "%"+strings.ToLower(params.Filters.Q)+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM messages %s", where)
	if err := d.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	pageQuery := fmt.Sprintf(`
		SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
		FROM messages
		%s
		ORDER BY ts ASC, message_id ASC
		LIMIT ? OFFSET ?
	`, where)

	rows, err := d.db.QueryContext(ctx, pageQuery, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	data := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.MessageID, &msg.From, &msg.To, &msg.Ts, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		data = append(data, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return &models.QueryPage{
		Data:   data,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

// GetStats summarizes the entire store. An empty store yields the explicit
// zero shape with nil timestamps. SendersCount mirrors the capped ranking
// rather than the true distinct-sender total; that scoping is intentional.
func (d *Database) GetStats(ctx context.Context) (*models.Stats, error) {
	var total int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	if total == 0 {
		return &models.Stats{
			TotalMessages:     0,
			SendersCount:      0,
			MessagesPerSender: []models.SenderCount{},
		}, nil
	}

	rankingQuery := `
		SELECT from_msisdn, COUNT(*) AS count
		FROM messages
		GROUP BY from_msisdn
		ORDER BY count DESC, from_msisdn ASC
		LIMIT ?
	`

	rows, err := d.db.QueryContext(ctx, rankingQuery, constants.TopSendersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank senders: %w", err)
	}
	defer rows.Close()

	ranking := make([]models.SenderCount, 0, constants.TopSendersLimit)
	for rows.Next() {
		var sc models.SenderCount
		if err := rows.Scan(&sc.From, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan sender count: %w", err)
		}
		ranking = append(ranking, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sender counts: %w", err)
	}

	var firstTs, lastTs string
	if err := d.db.QueryRowContext(ctx, "SELECT MIN(ts), MAX(ts) FROM messages").Scan(&firstTs, &lastTs); err != nil {
		return nil, fmt.Errorf("failed to get timestamp bounds: %w", err)
	}

	return &models.Stats{
		TotalMessages:     total,
		SendersCount:      len(ranking),
		MessagesPerSender: ranking,
		FirstMessageTs:    &firstTs,
		LastMessageTs:     &lastTs,
	}, nil
}
