package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PositionKV stores node position blobs in the node_positions table. It
// satisfies positions.KV.
type PositionKV struct {
	db *DB
}

func (s *DB) PositionKV() *PositionKV {
	return &PositionKV{db: s}
}

func (p *PositionKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := p.db.queryRow(ctx, `SELECT value FROM node_positions WHERE storage_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read positions: %w", err)
	}
	return []byte(value), true, nil
}

func (p *PositionKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.db.exec(ctx, `
		INSERT INTO node_positions (storage_key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (storage_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), p.db.timestamp())
	if err != nil {
		return fmt.Errorf("failed to write positions: %w", err)
	}
	return nil
}

func (p *PositionKV) Delete(ctx context.Context, key string) error {
	if _, err := p.db.exec(ctx, `DELETE FROM node_positions WHERE storage_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete positions: %w", err)
	}
	return nil
}
