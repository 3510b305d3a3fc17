package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS http_cache (
    url          TEXT PRIMARY KEY,
    body         BLOB NOT NULL,
    status       INTEGER NOT NULL DEFAULT 200,
    fetched_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_http_cache_fetched ON http_cache(fetched_at);
`
