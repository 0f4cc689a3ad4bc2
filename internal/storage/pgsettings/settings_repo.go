package pgsettings

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "select setting")
	}
	return value, true, nil
}

func (s *Storage) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO settings (key, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`, key, value, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "upsert setting")
	}
	return nil
}
