// Package postgres implements the PostgreSQL persistence layer for Bingo Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE BOARDS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create board tables
-- Version: 001

-- Boards hold the shared tile definitions and the two password hashes.
-- The grid is immutable after creation, so it is stored as JSONB rather
-- than normalized rows.
CREATE TABLE IF NOT EXISTS boards (
    name VARCHAR(64) PRIMARY KEY,
    admin_hash BYTEA NOT NULL,
    general_hash BYTEA NOT NULL,
    grid JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_updated TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Teams registered on a board.
CREATE TABLE IF NOT EXISTS teams (
    board_name VARCHAR(64) NOT NULL REFERENCES boards(name) ON DELETE CASCADE,
    name VARCHAR(64) NOT NULL,
    color VARCHAR(7) NOT NULL DEFAULT '#000000',
    members JSONB NOT NULL DEFAULT '[]'::jsonb,

    PRIMARY KEY (board_name, name)
);

-- Per-team tile progress. One row per (board, team, row, col); tile
-- transitions lock exactly this row.
CREATE TABLE IF NOT EXISTS team_tiles (
    board_name VARCHAR(64) NOT NULL REFERENCES boards(name) ON DELETE CASCADE,
    team_name VARCHAR(64) NOT NULL,
    tile_row INTEGER NOT NULL,
    tile_col INTEGER NOT NULL,
    checked BOOLEAN NOT NULL DEFAULT FALSE,
    proof_url TEXT NOT NULL DEFAULT '',
    completed_by VARCHAR(64) NOT NULL DEFAULT '',
    completed_at TIMESTAMP WITH TIME ZONE,

    PRIMARY KEY (board_name, team_name, tile_row, tile_col),
    FOREIGN KEY (board_name, team_name) REFERENCES teams(board_name, name) ON DELETE CASCADE,
    CONSTRAINT valid_coord CHECK (tile_row >= 0 AND tile_col >= 0)
);

CREATE INDEX IF NOT EXISTS idx_team_tiles_board ON team_tiles(board_name);
CREATE INDEX IF NOT EXISTS idx_team_tiles_checked ON team_tiles(board_name, team_name) WHERE checked;
`

const migration001Down = `
DROP TABLE IF EXISTS team_tiles;
DROP TABLE IF EXISTS teams;
DROP TABLE IF EXISTS boards;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE DROPS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create drop log
-- Version: 002

-- Append-only log of submitted drops. Rows are never updated.
CREATE TABLE IF NOT EXISTS drops (
    id UUID PRIMARY KEY,
    player_name VARCHAR(64) NOT NULL,
    item_name VARCHAR(128) NOT NULL,
    quantity INTEGER NOT NULL DEFAULT 1,
    rarity VARCHAR(32) NOT NULL DEFAULT '',
    item_value BIGINT NOT NULL DEFAULT 0,
    screenshot_url TEXT NOT NULL DEFAULT '',
    team_name VARCHAR(64) NOT NULL DEFAULT '',
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_quantity CHECK (quantity > 0)
);

CREATE INDEX IF NOT EXISTS idx_drops_occurred_at ON drops(occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_drops_player ON drops(player_name);
CREATE INDEX IF NOT EXISTS idx_drops_item ON drops(item_name);
`

const migration002Down = `
DROP TABLE IF EXISTS drops;
`
