package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
    id                   TEXT PRIMARY KEY,
    group_id             TEXT NOT NULL,
    name                 TEXT NOT NULL,
    schema_version       INTEGER NOT NULL,
    data                 TEXT NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_group ON snapshots(group_id, created_at);
`
