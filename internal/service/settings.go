// internal/service/settings.go
//
// Per-tenant key/value settings.  Reads are plain scoped lookups;
// writes are upserts audited like every other mutation.
package service

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/scope"
	"github.com/keelhq/tenantcore/internal/settings"
)

var settingKeyRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,99}$`)

func validSettingKey(key string) error {
	if !settingKeyRe.MatchString(key) {
		return apperr.Invalid("invalid setting key", map[string]string{
			"key": "lowercase letters, digits, dot, underscore, hyphen; max 100 chars",
		})
	}
	return nil
}

// GetSetting returns one setting, or NotFound.
func (s *Service) GetSetting(ctx context.Context, tenantID uuid.UUID, key string) (*settings.Setting, error) {
	if err := validSettingKey(key); err != nil {
		return nil, err
	}
	var out *settings.Setting
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		st, err := settings.Get(ctx, sc, key)
		if err != nil {
			return err
		}
		out = st
		return nil
	})
	return out, err
}

// ListSettings returns the tenant's settings ordered by key.
func (s *Service) ListSettings(ctx context.Context, tenantID uuid.UUID) ([]settings.Setting, error) {
	var out []settings.Setting
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		rows, err := settings.List(ctx, sc)
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}

// PutSetting creates or replaces one setting.
func (s *Service) PutSetting(ctx context.Context, actor Actor, tenantID uuid.UUID, key string, value types.JSONText) (*settings.Setting, error) {
	if err := validSettingKey(key); err != nil {
		return nil, err
	}
	var out *settings.Setting
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		st, err := settings.Put(ctx, sc, key, value)
		if err != nil {
			return err
		}
		out = st
		return s.record(ctx, sc, actor, "settings.put", "setting", key, nil)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSetting removes one setting.  Deleting an absent key succeeds.
func (s *Service) DeleteSetting(ctx context.Context, actor Actor, tenantID uuid.UUID, key string) error {
	if err := validSettingKey(key); err != nil {
		return err
	}
	return scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		if err := settings.Delete(ctx, sc, key); err != nil {
			return err
		}
		return s.record(ctx, sc, actor, "settings.delete", "setting", key, nil)
	})
}
