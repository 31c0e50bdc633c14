package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ConfigRepo: store de configuración namespaced sobre una tabla jsonb.
// Expone accessors tipados por scope y acceso crudo para el migrador.
type ConfigRepo struct{ db *sql.DB }

func NewConfigRepo(db *sql.DB) *ConfigRepo { return &ConfigRepo{db: db} }

// ---------- crudo (lo usa el migrador de esquema) ----------

func (r *ConfigRepo) Get(ctx context.Context, scope, guildID, entryID string) (map[string]any, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
SELECT data FROM config_entries
 WHERE scope = $1 AND guild_id = $2 AND entry_id = $3
`, scope, guildID, entryID).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config %s/%s/%s: %w", scope, guildID, entryID, err)
	}
	return doc, nil
}

func (r *ConfigRepo) Set(ctx context.Context, scope, guildID, entryID string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return r.setRaw(ctx, scope, guildID, entryID, raw)
}

func (r *ConfigRepo) setRaw(ctx context.Context, scope, guildID, entryID string, raw []byte) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO config_entries (scope, guild_id, entry_id, data)
VALUES ($1,$2,$3,$4)
ON CONFLICT (scope, guild_id, entry_id) DO UPDATE SET
  data = EXCLUDED.data, updated_at = now()
`, scope, guildID, entryID, raw)
	return err
}

func (r *ConfigRepo) ClearKey(ctx context.Context, scope, guildID, entryID, key string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE config_entries SET data = data - $4, updated_at = now()
 WHERE scope = $1 AND guild_id = $2 AND entry_id = $3
`, scope, guildID, entryID, key)
	return err
}

func (r *ConfigRepo) Clear(ctx context.Context, scope, guildID, entryID string) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM config_entries WHERE scope = $1 AND guild_id = $2 AND entry_id = $3
`, scope, guildID, entryID)
	return err
}

// All enumera todos los documentos de un scope (migraciones y arranque).
func (r *ConfigRepo) All(ctx context.Context, scope string) ([]RawEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT scope, guild_id, entry_id, data FROM config_entries
 WHERE scope = $1
 ORDER BY guild_id, entry_id
`, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RawEntry
	for rows.Next() {
		var e RawEntry
		var raw []byte
		if err := rows.Scan(&e.Scope, &e.GuildID, &e.EntryID, &raw); err != nil {
			return nil, err
		}
		e.Doc = map[string]any{}
		if err := json.Unmarshal(raw, &e.Doc); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---------- scope global ----------

func (r *ConfigRepo) SchemaVersion(ctx context.Context) (int, error) {
	doc, err := r.Get(ctx, ScopeGlobal, "", "")
	if err != nil {
		return 0, err
	}
	if v, ok := doc["schema_version"].(float64); ok {
		return int(v), nil
	}
	return 0, nil
}

func (r *ConfigRepo) SetSchemaVersion(ctx context.Context, v int) error {
	doc, err := r.Get(ctx, ScopeGlobal, "", "")
	if err != nil {
		return err
	}
	doc["schema_version"] = v
	return r.Set(ctx, ScopeGlobal, "", "", doc)
}

// ---------- scope guild ----------

func (r *ConfigRepo) GuildPolicy(ctx context.Context, guildID string) (GuildPolicy, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
SELECT data FROM config_entries WHERE scope = $1 AND guild_id = $2 AND entry_id = ''
`, ScopeGuild, guildID).Scan(&raw)
	if err == sql.ErrNoRows {
		return DefaultGuildPolicy(guildID), nil
	}
	if err != nil {
		return GuildPolicy{}, err
	}
	p := DefaultGuildPolicy(guildID)
	if err := json.Unmarshal(raw, &p); err != nil {
		return GuildPolicy{}, err
	}
	p.GuildID = guildID
	return p, nil
}

func (r *ConfigRepo) SetGuildPolicy(ctx context.Context, p GuildPolicy) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.setRaw(ctx, ScopeGuild, p.GuildID, "", raw)
}

// ---------- scope source ----------

func (r *ConfigRepo) SourceConfig(ctx context.Context, guildID, channelID string) (SourceConfig, bool, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
SELECT data FROM config_entries WHERE scope = $1 AND guild_id = $2 AND entry_id = $3
`, ScopeSource, guildID, channelID).Scan(&raw)
	if err == sql.ErrNoRows {
		return SourceConfig{}, false, nil
	}
	if err != nil {
		return SourceConfig{}, false, err
	}
	var c SourceConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return SourceConfig{}, false, err
	}
	c.GuildID = guildID
	c.SourceChannelID = channelID
	return c, true, nil
}

func (r *ConfigRepo) SetSourceConfig(ctx context.Context, c SourceConfig) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.setRaw(ctx, ScopeSource, c.GuildID, c.SourceChannelID, raw)
}

func (r *ConfigRepo) ClearSourceConfig(ctx context.Context, guildID, channelID string) error {
	return r.Clear(ctx, ScopeSource, guildID, channelID)
}

func (r *ConfigRepo) SourceConfigs(ctx context.Context, guildID string) ([]SourceConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT entry_id, data FROM config_entries
 WHERE scope = $1 AND guild_id = $2
 ORDER BY entry_id
`, ScopeSource, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SourceConfig
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var c SourceConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		c.GuildID = guildID
		c.SourceChannelID = id
		out = append(out, c)
	}
	return out, rows.Err()
}
