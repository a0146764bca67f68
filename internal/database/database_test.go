package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"pushledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDatabase(t *testing.T) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "pushledger.db")
	db, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})

	return db
}

func strPtr(s string) *string {
	return &s
}

func testMessage(id, from, ts string) *models.Message {
	return &models.Message{
		MessageID: id,
		From:      from,
		To:        "+14155552672",
		Ts:        ts,
		Text:      strPtr("hello"),
	}
}

func TestNewCreatesMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "data", "pushledger.db")
	db, err := New(dbPath)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}

func TestNewInvalidPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestSchemaInitIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "pushledger.db")

	db, err := New(dbPath)
	require.NoError(t, err)

	created, err := db.InsertMessage(context.Background(), testMessage("m1", "+14155552671", "2024-01-01T00:00:00Z"))
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, db.Close())

	// Reopening must not disturb existing rows.
	db, err = New(dbPath)
	require.NoError(t, err)
	defer db.Close()

	stats, err := db.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMessages)
}

func TestInsertMessageIdempotent(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	first := testMessage("m1", "+14155552671", "2024-01-01T00:00:00Z")
	created, err := db.InsertMessage(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.CreatedAt)

	// Second delivery with the same id but different content: first write
	// wins, the stored row is untouched.
	second := testMessage("m1", "+19998887766", "2030-12-31T23:59:59Z")
	second.Text = strPtr("tampered")
	created, err = db.InsertMessage(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, second.CreatedAt)

	page, err := db.QueryMessages(ctx, models.QueryParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "+14155552671", page.Data[0].From)
	assert.Equal(t, "2024-01-01T00:00:00Z", page.Data[0].Ts)
	require.NotNil(t, page.Data[0].Text)
	assert.Equal(t, "hello", *page.Data[0].Text)
}

func TestInsertMessageConcurrentSameID(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	const workers = 10
	results := make(chan bool, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := db.InsertMessage(ctx, testMessage("race", "+14155552671", "2024-01-01T00:00:00Z"))
			assert.NoError(t, err)
			results <- created
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for created := range results {
		if created {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent insert must win")

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMessages)
}

func TestInsertMessageNilText(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	msg := testMessage("m1", "+14155552671", "2024-01-01T00:00:00Z")
	msg.Text = nil
	created, err := db.InsertMessage(ctx, msg)
	require.NoError(t, err)
	assert.True(t, created)

	page, err := db.QueryMessages(ctx, models.QueryParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Nil(t, page.Data[0].Text)
}

func seedMessages(t *testing.T, db *Database) {
	t.Helper()
	ctx := context.Background()

	rows := []struct {
		id, from, ts string
		text         *string
	}{
		{"a1", "+14155552671", "2024-01-01T00:00:00Z", strPtr("Hello world")},
		{"a2", "+14155552671", "2024-01-02T00:00:00Z", strPtr("goodbye")},
		{"b1", "+442071838750", "2024-01-03T00:00:00Z", strPtr("HELLO again")},
		{"b2", "+442071838750", "2024-01-04T00:00:00Z", nil},
		{"c1", "+4915123456789", "2024-01-05T00:00:00Z", strPtr("unrelated")},
	}
	for _, r := range rows {
		created, err := db.InsertMessage(ctx, &models.Message{
			MessageID: r.id, From: r.from, To: "+14155552672", Ts: r.ts, Text: r.text,
		})
		require.NoError(t, err)
		require.True(t, created)
	}
}

func TestQueryMessagesNoFilters(t *testing.T) {
	db := setupTestDatabase(t)
	seedMessages(t, db)

	page, err := db.QueryMessages(context.Background(), models.QueryParams{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Data, 5)
	assert.Equal(t, "a1", page.Data[0].MessageID)
	assert.Equal(t, "c1", page.Data[4].MessageID)
}

func TestQueryMessagesFromFilter(t *testing.T) {
	db := setupTestDatabase(t)
	seedMessages(t, db)

	page, err := db.QueryMessages(context.Background(), models.QueryParams{
		Limit:   10,
		Filters: models.QueryFilters{From: "+14155552671"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, msg := range page.Data {
		assert.Equal(t, "+14155552671", msg.From)
	}
}

func TestQueryMessagesSinceFilterInclusive(t *testing.T) {
	db := setupTestDatabase(t)
	seedMessages(t, db)

	page, err := db.QueryMessages(context.Background(), models.QueryParams{
		Limit:   10,
		Filters: models.QueryFilters{Since: "2024-01-03T00:00:00Z"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, "b1", page.Data[0].MessageID)
}

func TestQueryMessagesTextSearch(t *testing.T) {
	db := setupTestDatabase(t)
	seedMessages(t, db)

	// Case-insensitive substring; NULL text rows never match.
	page, err := db.QueryMessages(context.Background(), models.QueryParams{
		Limit:   10,
		Filters: models.QueryFilters{Q: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "a1", page.Data[0].MessageID)
	assert.Equal(t, "b1", page.Data[1].MessageID)
}

func TestQueryMessagesCombinedFilters(t *testing.T) {
	db := setupTestDatabase(t)
	seedMessages(t, db)

	page, err := db.QueryMessages(context.Background(), models.QueryParams{
		Limit: 10,
		Filters: models.QueryFilters{
			From:  "+442071838750",
			Since: "2024-01-01T00:00:00Z",
			Q:     "hello",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "b1", page.Data[0].MessageID)
}

func TestQueryMessagesPaginationTotalInvariance(t *testing.T) {
	db := setupTestDatabase(t)
	seedMessages(t, db)
	ctx := context.Background()

	var collected []string
	for offset := 0; offset < 5; offset += 2 {
		page, err := db.QueryMessages(ctx, models.QueryParams{Limit: 2, Offset: offset})
		require.NoError(t, err)
		assert.Equal(t, 5, page.Total, "total must not depend on pagination")
		for _, msg := range page.Data {
			collected = append(collected, msg.MessageID)
		}
	}

	assert.Equal(t, []string{"a1", "a2", "b1", "b2", "c1"}, collected)
}

func TestQueryMessagesOrderingStableForEqualTs(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	for _, id := range []string{"z9", "a1", "m5"} {
		created, err := db.InsertMessage(ctx, testMessage(id, "+14155552671", "2024-01-01T00:00:00Z"))
		require.NoError(t, err)
		require.True(t, created)
	}

	for i := 0; i < 3; i++ {
		page, err := db.QueryMessages(ctx, models.QueryParams{Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Data, 3)
		assert.Equal(t, "a1", page.Data[0].MessageID)
		assert.Equal(t, "m5", page.Data[1].MessageID)
		assert.Equal(t, "z9", page.Data[2].MessageID)
	}
}

func TestGetStatsEmptyStore(t *testing.T) {
	db := setupTestDatabase(t)

	stats, err := db.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalMessages)
	assert.Equal(t, 0, stats.SendersCount)
	assert.NotNil(t, stats.MessagesPerSender)
	assert.Empty(t, stats.MessagesPerSender)
	assert.Nil(t, stats.FirstMessageTs)
	assert.Nil(t, stats.LastMessageTs)
}

func TestGetStats(t *testing.T) {
	db := setupTestDatabase(t)
	seedMessages(t, db)

	stats, err := db.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalMessages)
	assert.Equal(t, 3, stats.SendersCount)
	require.Len(t, stats.MessagesPerSender, 3)

	// Ranking is by count descending, sender ascending on ties.
	assert.Equal(t, 2, stats.MessagesPerSender[0].Count)
	assert.Equal(t, 2, stats.MessagesPerSender[1].Count)
	assert.Equal(t, "+14155552671", stats.MessagesPerSender[0].From)
	assert.Equal(t, "+442071838750", stats.MessagesPerSender[1].From)
	assert.Equal(t, "+4915123456789", stats.MessagesPerSender[2].From)

	require.NotNil(t, stats.FirstMessageTs)
	require.NotNil(t, stats.LastMessageTs)
	assert.Equal(t, "2024-01-01T00:00:00Z", *stats.FirstMessageTs)
	assert.Equal(t, "2024-01-05T00:00:00Z", *stats.LastMessageTs)
}

func TestGetStatsRankingCappedAtTen(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	// 12 distinct senders, one message each.
	for i := 0; i < 12; i++ {
		msg := testMessage(fmt.Sprintf("m%d", i), fmt.Sprintf("+141555526%02d", i+10), "2024-01-01T00:00:00Z")
		created, err := db.InsertMessage(ctx, msg)
		require.NoError(t, err)
		require.True(t, created)
	}

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalMessages)
	// senders_count reflects the capped ranking, not the distinct total.
	assert.Len(t, stats.MessagesPerSender, 10)
	assert.Equal(t, 10, stats.SendersCount)
}
