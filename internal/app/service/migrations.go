package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jose-valero/autoroom-bot/internal/domain"
	"github.com/jose-valero/autoroom-bot/internal/infra/storage"
)

// CurrentSchemaVersion: versión del esquema de documentos de config. No
// confundir con las migraciones SQL (goose); esto migra el CONTENIDO de los
// documentos jsonb entre formatos históricos.
const CurrentSchemaVersion = 7

// SchemaMigrator corre los pasos pendientes en orden al arrancar. Cada paso
// es idempotente: correrlo dos veces deja el mismo resultado.
type SchemaMigrator struct {
	raw RawConfig
}

func NewSchemaMigrator(raw RawConfig) *SchemaMigrator {
	return &SchemaMigrator{raw: raw}
}

// steps: versión -> migración. No existe el paso 3 (la versión 3 nunca
// cambió el formato, sólo revalidaba datos).
var schemaSteps = []struct {
	to int
	fn func(*SchemaMigrator, context.Context) error
}{
	{1, (*SchemaMigrator).migrate1},
	{2, (*SchemaMigrator).migrate2},
	{4, (*SchemaMigrator).migrate4},
	{5, (*SchemaMigrator).migrate5},
	{6, (*SchemaMigrator).migrate6},
	{7, (*SchemaMigrator).migrate7},
}

func (m *SchemaMigrator) Run(ctx context.Context) error {
	v, err := m.raw.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	for _, s := range schemaSteps {
		if v >= s.to {
			continue
		}
		log.Printf("[schema] migrando a v%d", s.to)
		if err := s.fn(m, ctx); err != nil {
			return fmt.Errorf("schema v%d: %w", s.to, err)
		}
		if err := m.raw.SetSchemaVersion(ctx, s.to); err != nil {
			return fmt.Errorf("schema v%d commit: %w", s.to, err)
		}
		v = s.to
	}
	return nil
}

// v1: el flag booleano "private" dentro de cada source embebido pasa a ser
// el enum "room_type".
func (m *SchemaMigrator) migrate1(ctx context.Context) error {
	return m.eachGuildAVC(ctx, func(src map[string]any) bool {
		priv, ok := src["private"]
		if !ok {
			return false
		}
		if b, _ := priv.(bool); b {
			src["room_type"] = string(domain.RoomTypePrivate)
		} else {
			src["room_type"] = string(domain.RoomTypePublic)
		}
		delete(src, "private")
		return true
	})
}

// v2: el ajuste global de rol de miembro singular quedó retirado.
func (m *SchemaMigrator) migrate2(ctx context.Context) error {
	entries, err := m.raw.All(ctx, storage.ScopeGuild)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, ok := e.Doc["member_role"]; !ok {
			continue
		}
		if err := m.raw.ClearKey(ctx, storage.ScopeGuild, e.GuildID, e.EntryID, "member_role"); err != nil {
			return err
		}
	}
	return nil
}

// v4: los sources dejan de vivir embebidos en el documento del guild
// ("auto_voice_channels") y pasan a documentos propios con scope source.
func (m *SchemaMigrator) migrate4(ctx context.Context) error {
	entries, err := m.raw.All(ctx, storage.ScopeGuild)
	if err != nil {
		return err
	}
	for _, e := range entries {
		avcs, ok := e.Doc["auto_voice_channels"].(map[string]any)
		if !ok {
			continue
		}
		for sourceID, raw := range avcs {
			src, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			doc := map[string]any{}
			for _, k := range []string{"dest_category_id", "room_type", "channel_name_type", "channel_name_format", "increment_always", "increment_format", "member_roles", "text_channel"} {
				if v, ok := src[k]; ok {
					doc[k] = v
				}
			}
			if err := m.raw.Set(ctx, storage.ScopeSource, e.GuildID, sourceID, doc); err != nil {
				return err
			}
		}
		if err := m.raw.ClearKey(ctx, storage.ScopeGuild, e.GuildID, e.EntryID, "auto_voice_channels"); err != nil {
			return err
		}
	}
	return nil
}

// v5: el par channel_name_type/increment_format colapsa en un único
// template channel_name_format con la sintaxis actual.
func (m *SchemaMigrator) migrate5(ctx context.Context) error {
	entries, err := m.raw.All(ctx, storage.ScopeSource)
	if err != nil {
		return err
	}
	for _, e := range entries {
		doc := e.Doc
		changed := false

		if tmpl, ok := doc["channel_name_format"].(string); ok && strings.TrimSpace(tmpl) != "" {
			// un template ya migrado (llaves dobles) se deja tal cual
			if !strings.Contains(tmpl, "{{") {
				doc["channel_name_format"] = upgradeTemplate(tmpl, doc)
				changed = true
			}
		} else if nameType, ok := doc["channel_name_type"].(string); ok {
			switch nameType {
			case "game":
				doc["channel_name_format"] = domain.GameNameTemplate
			default:
				doc["channel_name_format"] = domain.DefaultNameTemplate
			}
			changed = true
		}

		for _, k := range []string{"channel_name_type", "increment_always", "increment_format"} {
			if _, ok := doc[k]; ok {
				delete(doc, k)
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := m.raw.Set(ctx, storage.ScopeSource, e.GuildID, e.EntryID, doc); err != nil {
			return err
		}
	}
	return nil
}

// upgradeTemplate reescribe un template del formato viejo de llaves simples
// al actual, incorporando la política de numeración que antes vivía en
// claves separadas.
func upgradeTemplate(tmpl string, doc map[string]any) string {
	out := strings.ReplaceAll(tmpl, "{username}", "{{username}}")
	out = strings.ReplaceAll(out, "{game}", "{{game}}")

	suffix, _ := doc["increment_format"].(string)
	if suffix == "" {
		suffix = " ({{dupenum}})"
	} else {
		suffix = strings.ReplaceAll(suffix, "{number}", "{{dupenum}}")
	}
	if always, _ := doc["increment_always"].(bool); always {
		return out + suffix
	}
	return out + "{% if dupenum > 1 %}" + suffix + "{% endif %}"
}

// v6: el acceso por roles de miembro se renombró; la clave vieja se purga
// (la nueva la escriben los setters bajo "access_member_roles").
func (m *SchemaMigrator) migrate6(ctx context.Context) error {
	entries, err := m.raw.All(ctx, storage.ScopeSource)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, ok := e.Doc["member_roles"]; !ok {
			continue
		}
		if err := m.raw.ClearKey(ctx, storage.ScopeSource, e.GuildID, e.EntryID, "member_roles"); err != nil {
			return err
		}
	}
	return nil
}

// v7: los flags de acceso a text channels se unifican con los de voz y el
// "text_channel" viejo pasa a "legacy_text_channel".
func (m *SchemaMigrator) migrate7(ctx context.Context) error {
	guilds, err := m.raw.All(ctx, storage.ScopeGuild)
	if err != nil {
		return err
	}
	for _, e := range guilds {
		for _, k := range []string{"admin_access_text", "mod_access_text"} {
			if _, ok := e.Doc[k]; !ok {
				continue
			}
			if err := m.raw.ClearKey(ctx, storage.ScopeGuild, e.GuildID, e.EntryID, k); err != nil {
				return err
			}
		}
	}

	sources, err := m.raw.All(ctx, storage.ScopeSource)
	if err != nil {
		return err
	}
	for _, e := range sources {
		v, ok := e.Doc["text_channel"]
		if !ok {
			continue
		}
		doc := e.Doc
		if b, _ := v.(bool); b {
			doc["legacy_text_channel"] = true
		}
		delete(doc, "text_channel")
		if err := m.raw.Set(ctx, storage.ScopeSource, e.GuildID, e.EntryID, doc); err != nil {
			return err
		}
	}
	return nil
}

// eachGuildAVC recorre los sources embebidos pre-v4 dentro del documento de
// cada guild y persiste los que fn haya tocado.
func (m *SchemaMigrator) eachGuildAVC(ctx context.Context, fn func(map[string]any) bool) error {
	entries, err := m.raw.All(ctx, storage.ScopeGuild)
	if err != nil {
		return err
	}
	for _, e := range entries {
		avcs, ok := e.Doc["auto_voice_channels"].(map[string]any)
		if !ok {
			continue
		}
		changed := false
		for _, raw := range avcs {
			if src, ok := raw.(map[string]any); ok && fn(src) {
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := m.raw.Set(ctx, storage.ScopeGuild, e.GuildID, e.EntryID, e.Doc); err != nil {
			return err
		}
	}
	return nil
}
