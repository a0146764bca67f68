package migrations

// initialSchema creates the messages table. It is applied on every startup
// and must stay idempotent (create-if-absent only). The primary key on
// message_id is what makes Insert an atomic conditional create.
const initialSchema = `
CREATE TABLE IF NOT EXISTS messages (
    message_id  TEXT PRIMARY KEY,
    from_msisdn TEXT NOT NULL,
    to_msisdn   TEXT NOT NULL,
    ts          TEXT NOT NULL,
    text        TEXT,
    created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_from ON messages(from_msisdn);
CREATE INDEX IF NOT EXISTS idx_messages_ts_id ON messages(ts, message_id);
`

// GetInitialSchema returns the database schema applied at startup
func GetInitialSchema() string {
	return initialSchema
}
