package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

const ShowUTCKey = "showUTC"

// PreferenceRepository persists display preferences next to the task payload.
type PreferenceRepository struct {
	kv KVStore
}

func NewPreferenceRepository(kv KVStore) *PreferenceRepository {
	return &PreferenceRepository{kv: kv}
}

// ShowUTC reports the stored flag; ok is false when nothing usable is stored.
func (r *PreferenceRepository) ShowUTC(ctx context.Context) (value, ok bool, err error) {
	data, err := r.kv.Get(ctx, ShowUTCKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("load preference: %w", err)
	}
	parsed, perr := strconv.ParseBool(string(data))
	if perr != nil {
		return false, false, nil
	}
	return parsed, true, nil
}

func (r *PreferenceRepository) SetShowUTC(ctx context.Context, value bool) error {
	if err := r.kv.Set(ctx, ShowUTCKey, []byte(strconv.FormatBool(value))); err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}
