package store

// Schema for the shared state database. Every write is a whole-record
// replace inside a transaction that also bumps the matching revision
// counter; the counters are what cross-context watchers poll.
const schema = `
CREATE TABLE IF NOT EXISTS entitlement (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    licensed       INTEGER NOT NULL DEFAULT 0,
    trial_start    TEXT,
    trial_consumed INTEGER NOT NULL DEFAULT 0,
    updated_at     TEXT NOT NULL
);

INSERT OR IGNORE INTO entitlement (id, licensed, trial_start, trial_consumed, updated_at)
VALUES (1, 0, NULL, 0, strftime('%Y-%m-%dT%H:%M:%fZ','now'));

CREATE TABLE IF NOT EXISTS site_settings (
    hostname        TEXT PRIMARY KEY,
    volume_boost    REAL    NOT NULL,
    speed           REAL    NOT NULL,
    night_mode      INTEGER NOT NULL,
    pitch_semitones INTEGER NOT NULL,
    updated_at      TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS saved_mix (
    id              INTEGER PRIMARY KEY CHECK (id = 1),
    volume_boost    REAL    NOT NULL,
    speed           REAL    NOT NULL,
    night_mode      INTEGER NOT NULL,
    pitch_semitones INTEGER NOT NULL,
    updated_at      TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS revisions (
    scope    TEXT PRIMARY KEY,
    revision INTEGER NOT NULL
);

INSERT OR IGNORE INTO revisions (scope, revision) VALUES
    ('entitlement', 0),
    ('settings', 0),
    ('mix', 0);
`
