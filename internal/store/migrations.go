package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    status          TEXT NOT NULL DEFAULT 'running',
    started_at      DATETIME NOT NULL,
    finished_at     DATETIME,
    signal_count    INTEGER NOT NULL DEFAULT 0,
    candidate_count INTEGER NOT NULL DEFAULT 0,
    error           TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS signals (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL REFERENCES runs(id),
    source      TEXT NOT NULL,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    url         TEXT NOT NULL DEFAULT '',
    raw_score   REAL NOT NULL DEFAULT 0,
    score       REAL NOT NULL DEFAULT 0,
    categories  TEXT NOT NULL DEFAULT '[]',
    meta        TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_signals_run ON signals(run_id);
CREATE INDEX IF NOT EXISTS idx_signals_source ON signals(source);

CREATE TABLE IF NOT EXISTS snapshots (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       TEXT NOT NULL REFERENCES runs(id),
    rank         INTEGER NOT NULL,
    title        TEXT NOT NULL,
    score        REAL NOT NULL DEFAULT 0,
    sources      INTEGER NOT NULL DEFAULT 0,
    source_names TEXT NOT NULL DEFAULT '[]',
    category     TEXT NOT NULL DEFAULT '',
    biz_category TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL DEFAULT '',
    UNIQUE(run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id);
`
