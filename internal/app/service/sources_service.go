package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jose-valero/autoroom-bot/internal/domain"
	"github.com/jose-valero/autoroom-bot/internal/infra/storage"
)

// SourcesService: administración de los canales origen y la política por
// guild. Todo esto lo disparan admins vía /autoroomset.
type SourcesService struct {
	p     Platform
	cfg   ConfigStore
	rooms RoomStore
}

func NewSourcesService(p Platform, cfg ConfigStore, rooms RoomStore) *SourcesService {
	return &SourcesService{p: p, cfg: cfg, rooms: rooms}
}

// Register da de alta un source apuntando a una categoría destino.
func (s *SourcesService) Register(ctx context.Context, guildID, sourceChannelID, destCategoryID string) (string, error) {
	src, err := s.p.Channel(ctx, sourceChannelID)
	if err != nil {
		return "", fmt.Errorf("leer source %s: %w", sourceChannelID, err)
	}
	if src.Kind != ChannelVoice {
		return "⚠️ El canal origen tiene que ser un canal de voz.", nil
	}
	cat, err := s.p.Channel(ctx, destCategoryID)
	if err != nil {
		return "", fmt.Errorf("leer categoría %s: %w", destCategoryID, err)
	}
	if cat.Kind != ChannelCategory {
		return "⚠️ El destino tiene que ser una categoría.", nil
	}
	if perms, err := s.p.BotPermissionsIn(destCategoryID); err != nil || perms&domain.BotRoomPerms != domain.BotRoomPerms {
		return "⚠️ Me faltan permisos en esa categoría (ver, conectar, administrar canales, mover miembros).", nil
	}

	cfg := storage.SourceConfig{
		GuildID:         guildID,
		SourceChannelID: sourceChannelID,
		DestCategoryID:  destCategoryID,
		RoomType:        string(domain.RoomTypePublic),
		NameTemplate:    domain.DefaultNameTemplate,
	}
	if err := s.cfg.SetSourceConfig(ctx, cfg); err != nil {
		return "", fmt.Errorf("guardar source %s: %w", sourceChannelID, err)
	}
	return fmt.Sprintf("✅ Listo! Quien entre a **%s** va a recibir su propio AutoRoom en **%s**.", src.Name, cat.Name), nil
}

func (s *SourcesService) Unregister(ctx context.Context, guildID, sourceChannelID string) (string, error) {
	_, ok, err := s.cfg.SourceConfig(ctx, guildID, sourceChannelID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "⚠️ Ese canal no está registrado como origen.", nil
	}
	if err := s.cfg.ClearSourceConfig(ctx, guildID, sourceChannelID); err != nil {
		return "", fmt.Errorf("borrar source %s: %w", sourceChannelID, err)
	}
	return "✅ Canal origen dado de baja. Los AutoRooms existentes siguen hasta vaciarse.", nil
}

// mutate carga el source, aplica fn y persiste. Centraliza el patrón
// get/modify/set de todos los setters.
func (s *SourcesService) mutate(ctx context.Context, guildID, sourceChannelID string, fn func(*storage.SourceConfig) (string, bool)) (string, error) {
	cfg, ok, err := s.cfg.SourceConfig(ctx, guildID, sourceChannelID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "⚠️ Ese canal no está registrado como origen.", nil
	}
	msg, save := fn(&cfg)
	if !save {
		return msg, nil
	}
	if err := s.cfg.SetSourceConfig(ctx, cfg); err != nil {
		return "", fmt.Errorf("guardar source %s: %w", sourceChannelID, err)
	}
	return msg, nil
}

func (s *SourcesService) SetRoomType(ctx context.Context, guildID, sourceChannelID, roomType string) (string, error) {
	return s.mutate(ctx, guildID, sourceChannelID, func(c *storage.SourceConfig) (string, bool) {
		t, ok := domain.ParseRoomType(roomType)
		if !ok {
			return "⚠️ Tipo desconocido. Opciones: public, private, server.", false
		}
		c.RoomType = string(t)
		return fmt.Sprintf("✅ Los AutoRooms de este origen van a ser **%s**.", t), true
	})
}

// SetNameTemplate valida el template renderizándolo antes de guardar.
func (s *SourcesService) SetNameTemplate(ctx context.Context, guildID, sourceChannelID, tmpl string) (string, error) {
	return s.mutate(ctx, guildID, sourceChannelID, func(c *storage.SourceConfig) (string, bool) {
		tmpl = strings.TrimSpace(tmpl)
		if tmpl == "" {
			c.NameTemplate = domain.DefaultNameTemplate
			return "✅ Template de nombre vuelto al default.", true
		}
		sample := domain.TemplateData{Username: "Pepe", Game: "Chess", Dupenum: 2}
		preview, err := domain.RenderTemplate(tmpl, sample)
		if err != nil {
			return fmt.Sprintf("⚠️ Template inválido: %v", err), false
		}
		c.NameTemplate = tmpl
		return fmt.Sprintf("✅ Template guardado. Ejemplo: **%s**", preview), true
	})
}

func (s *SourcesService) SetText(ctx context.Context, guildID, sourceChannelID string, enabled bool) (string, error) {
	return s.mutate(ctx, guildID, sourceChannelID, func(c *storage.SourceConfig) (string, bool) {
		c.TextChannel = enabled
		if enabled {
			return "✅ Cada AutoRoom nuevo va a tener su text channel acompañante.", true
		}
		return "✅ Text channel acompañante desactivado.", true
	})
}

func (s *SourcesService) SetTextHint(ctx context.Context, guildID, sourceChannelID, hint string) (string, error) {
	return s.mutate(ctx, guildID, sourceChannelID, func(c *storage.SourceConfig) (string, bool) {
		if hint != "" {
			if _, err := domain.RenderTemplate(hint, domain.TemplateData{Username: "Pepe", Dupenum: 1}); err != nil {
				return fmt.Sprintf("⚠️ Hint inválido: %v", err), false
			}
		}
		c.TextHint = hint
		if hint == "" {
			return "✅ Mensaje de bienvenida quitado.", true
		}
		return "✅ Mensaje de bienvenida guardado.", true
	})
}

func (s *SourcesService) SetTextTopic(ctx context.Context, guildID, sourceChannelID, topic string) (string, error) {
	return s.mutate(ctx, guildID, sourceChannelID, func(c *storage.SourceConfig) (string, bool) {
		if topic != "" {
			if _, err := domain.RenderTemplate(topic, domain.TemplateData{Username: "Pepe", Dupenum: 1}); err != nil {
				return fmt.Sprintf("⚠️ Topic inválido: %v", err), false
			}
		}
		c.TextTopic = topic
		if topic == "" {
			return "✅ Topic quitado.", true
		}
		return "✅ Topic guardado.", true
	})
}

// SetMemberRoles: restringe el acceso base de los rooms a estos roles.
// Lista vacía vuelve al acceso por everyone.
func (s *SourcesService) SetMemberRoles(ctx context.Context, guildID, sourceChannelID string, roleIDs []string) (string, error) {
	return s.mutate(ctx, guildID, sourceChannelID, func(c *storage.SourceConfig) (string, bool) {
		c.MemberRoleIDs = roleIDs
		if len(roleIDs) == 0 {
			return "✅ Acceso abierto a todo el server de nuevo.", true
		}
		return fmt.Sprintf("✅ Acceso restringido a %d rol(es).", len(roleIDs)), true
	})
}

// ---------- política de guild ----------

func (s *SourcesService) SetAdminAccess(ctx context.Context, guildID string, enabled bool) (string, error) {
	return s.mutatePolicy(ctx, guildID, func(p *storage.GuildPolicy) string {
		p.AdminAccess = enabled
		if enabled {
			return "✅ Los roles admin van a tener acceso a todos los AutoRooms nuevos."
		}
		return "✅ Los roles admin ya no reciben acceso automático."
	})
}

func (s *SourcesService) SetModAccess(ctx context.Context, guildID string, enabled bool) (string, error) {
	return s.mutatePolicy(ctx, guildID, func(p *storage.GuildPolicy) string {
		p.ModAccess = enabled
		if enabled {
			return "✅ Los roles mod van a tener acceso a todos los AutoRooms nuevos."
		}
		return "✅ Los roles mod ya no reciben acceso automático."
	})
}

func (s *SourcesService) SetBotRoles(ctx context.Context, guildID string, roleIDs []string) (string, error) {
	return s.mutatePolicy(ctx, guildID, func(p *storage.GuildPolicy) string {
		p.BotRoleIDs = roleIDs
		if len(roleIDs) == 0 {
			return "✅ Ningún rol de bots con acceso automático."
		}
		return fmt.Sprintf("✅ %d rol(es) de bots con acceso automático.", len(roleIDs))
	})
}

func (s *SourcesService) mutatePolicy(ctx context.Context, guildID string, fn func(*storage.GuildPolicy) string) (string, error) {
	pol, err := s.cfg.GuildPolicy(ctx, guildID)
	if err != nil {
		return "", err
	}
	msg := fn(&pol)
	if err := s.cfg.SetGuildPolicy(ctx, pol); err != nil {
		return "", fmt.Errorf("guardar policy %s: %w", guildID, err)
	}
	return msg, nil
}

// Settings arma el resumen de configuración del guild para /autoroomset view.
func (s *SourcesService) Settings(ctx context.Context, guildID string) (string, error) {
	pol, err := s.cfg.GuildPolicy(ctx, guildID)
	if err != nil {
		return "", err
	}
	srcs, err := s.cfg.SourceConfigs(ctx, guildID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("**Configuración de AutoRoom**\n")
	fmt.Fprintf(&b, "Acceso admin: %s · Acceso mod: %s\n", onOff(pol.AdminAccess), onOff(pol.ModAccess))
	if len(pol.BotRoleIDs) > 0 {
		fmt.Fprintf(&b, "Roles de bots: %s\n", mentionRoles(pol.BotRoleIDs))
	}
	if len(srcs) == 0 {
		b.WriteString("\nNo hay canales origen registrados. Usá `/autoroomset create`.")
		return b.String(), nil
	}
	for _, src := range srcs {
		fmt.Fprintf(&b, "\n<#%s> → <#%s>\n", src.SourceChannelID, src.DestCategoryID)
		fmt.Fprintf(&b, "  Tipo: %s · Text channel: %s\n", src.Type(), onOff(src.TextChannel))
		fmt.Fprintf(&b, "  Template: `%s`\n", src.NameTemplate)
		if len(src.MemberRoleIDs) > 0 {
			fmt.Fprintf(&b, "  Roles con acceso: %s\n", mentionRoles(src.MemberRoleIDs))
		}
	}
	return b.String(), nil
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

func mentionRoles(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "<@&" + id + ">"
	}
	return strings.Join(out, " ")
}
