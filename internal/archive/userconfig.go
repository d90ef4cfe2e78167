package archive

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/fortemi/matric/internal/matricerr"
)

// UserConfigRepository is the C4 façade over the per-archive user_config
// key/value table (spec §6 "Persisted state layout"): arbitrary settings
// stored as jsonb, keyed by a string name.
type UserConfigRepository struct{}

// NewUserConfigRepository returns a stateless façade.
func NewUserConfigRepository() *UserConfigRepository { return &UserConfigRepository{} }

// GetRaw returns the raw jsonb value for key, or ok=false if unset.
func (r *UserConfigRepository) GetRaw(ctx context.Context, tx Queryer, key string) (raw []byte, ok bool, err error) {
	err = tx.QueryRow(ctx, `SELECT value FROM user_config WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, matricerr.Databasef(err, "get user_config %s", key)
	}
	return raw, true, nil
}

// GetBool returns the bool stored at key, or fallback if unset or malformed.
func (r *UserConfigRepository) GetBool(ctx context.Context, tx Queryer, key string, fallback bool) (bool, error) {
	raw, ok, err := r.GetRaw(ctx, tx, key)
	if err != nil || !ok {
		return fallback, err
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return fallback, nil
	}
	return v, nil
}

// GetInt returns the int stored at key, or fallback if unset or malformed.
func (r *UserConfigRepository) GetInt(ctx context.Context, tx Queryer, key string, fallback int) (int, error) {
	raw, ok, err := r.GetRaw(ctx, tx, key)
	if err != nil || !ok {
		return fallback, err
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return fallback, nil
	}
	return v, nil
}

// Set upserts key to the JSON encoding of value.
func (r *UserConfigRepository) Set(ctx context.Context, tx Queryer, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return matricerr.InvalidInputf("marshal user_config %s: %v", key, err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO user_config (key, value) VALUES ($1, $2::jsonb)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, raw)
	if err != nil {
		return matricerr.Databasef(err, "set user_config %s", key)
	}
	return nil
}
