package pgstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrymomot/hookrelay/pkg/pg"
)

// SettingsSource reads runtime settings from the newest runtime_settings row.
// Every update inserts a new row so earlier values stay as history.
type SettingsSource struct {
	db DB
}

// NewSettingsSource creates a runtime settings source on the runtime_settings table
func NewSettingsSource(db DB) *SettingsSource {
	return &SettingsSource{db: db}
}

// Settings returns the newest settings map, or an empty map when no row exists.
// Numbers are decoded as json.Number.
func (s *SettingsSource) Settings(ctx context.Context) (map[string]any, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT settings FROM runtime_settings ORDER BY id DESC LIMIT 1`).Scan(&raw)
	if pg.IsNotFoundError(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load runtime settings: %w", err)
	}

	out := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode runtime settings: %w", err)
	}
	return out, nil
}

// Update stores settings as the newest row, replacing the whole map
func (s *SettingsSource) Update(ctx context.Context, settings map[string]any) error {
	if settings == nil {
		return errors.New("settings cannot be nil")
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode runtime settings: %w", err)
	}
	if _, err := s.db.Exec(ctx, `INSERT INTO runtime_settings (settings) VALUES ($1)`, string(raw)); err != nil {
		return fmt.Errorf("store runtime settings: %w", err)
	}
	return nil
}

// Set updates a single key on top of the newest settings
func (s *SettingsSource) Set(ctx context.Context, key string, value any) error {
	current, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	current[key] = value
	return s.Update(ctx, current)
}
