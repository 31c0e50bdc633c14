package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/jose-valero/autoroom-bot/internal/app/service"
	"github.com/jose-valero/autoroom-bot/internal/domain"
)

// Platform implementa service.Platform sobre una sesión de discordgo.
// Lee del State cuando alcanza y cae a REST cuando no.
type Platform struct {
	s *discordgo.Session
}

func NewPlatform(s *discordgo.Session) *Platform {
	return &Platform{s: s}
}

// mapErr traduce los RESTError de discordgo a los sentinels del service.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var re *discordgo.RESTError
	if errors.As(err, &re) && re.Response != nil {
		switch re.Response.StatusCode {
		case 403:
			return fmt.Errorf("%w: %v", service.ErrForbidden, err)
		case 404:
			return fmt.Errorf("%w: %v", service.ErrNotFound, err)
		}
	}
	return err
}

func (p *Platform) BotUserID() string { return p.s.State.User.ID }

// EveryoneRoleID: en Discord el rol @everyone comparte ID con el guild.
func (p *Platform) EveryoneRoleID(guildID string) string { return guildID }

func (p *Platform) safeGetChannel(id string) (*discordgo.Channel, error) {
	if ch, err := p.s.State.Channel(id); err == nil && ch != nil {
		return ch, nil
	}
	ch, err := p.s.Channel(id)
	if err != nil {
		return nil, mapErr(err)
	}
	_ = p.s.State.ChannelAdd(ch)
	return ch, nil
}

func (p *Platform) Channel(_ context.Context, channelID string) (service.Channel, error) {
	ch, err := p.safeGetChannel(channelID)
	if err != nil {
		return service.Channel{}, err
	}
	return toChannel(ch), nil
}

func toChannel(ch *discordgo.Channel) service.Channel {
	out := service.Channel{
		ID:        ch.ID,
		GuildID:   ch.GuildID,
		Name:      ch.Name,
		ParentID:  ch.ParentID,
		Bitrate:   ch.Bitrate,
		UserLimit: ch.UserLimit,
	}
	switch ch.Type {
	case discordgo.ChannelTypeGuildVoice:
		out.Kind = service.ChannelVoice
	case discordgo.ChannelTypeGuildText:
		out.Kind = service.ChannelText
	case discordgo.ChannelTypeGuildCategory:
		out.Kind = service.ChannelCategory
	default:
		out.Kind = service.ChannelOther
	}
	for _, ow := range ch.PermissionOverwrites {
		kind := domain.PrincipalRole
		if ow.Type == discordgo.PermissionOverwriteTypeMember {
			kind = domain.PrincipalMember
		}
		out.Overwrites = append(out.Overwrites, domain.SourceOverwrite{
			Target: domain.Principal{Kind: kind, ID: ow.ID},
			Delta:  domain.PermDelta{Allow: ow.Allow, Deny: ow.Deny},
		})
	}
	return out
}

func toOverwrites(ow *domain.Overwrites) []*discordgo.PermissionOverwrite {
	if ow == nil {
		return nil
	}
	out := make([]*discordgo.PermissionOverwrite, 0, ow.Len())
	ow.Each(func(target domain.Principal, delta domain.PermDelta) {
		t := discordgo.PermissionOverwriteTypeRole
		if target.Kind == domain.PrincipalMember {
			t = discordgo.PermissionOverwriteTypeMember
		}
		out = append(out, &discordgo.PermissionOverwrite{
			ID:    target.ID,
			Type:  t,
			Allow: delta.Allow,
			Deny:  delta.Deny,
		})
	})
	return out
}

func (p *Platform) CreateVoiceChannel(_ context.Context, guildID string, c service.VoiceChannelCreate) (service.Channel, error) {
	ch, err := p.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 c.Name,
		Type:                 discordgo.ChannelTypeGuildVoice,
		ParentID:             c.CategoryID,
		Bitrate:              c.Bitrate,
		UserLimit:            c.UserLimit,
		PermissionOverwrites: toOverwrites(c.Overwrites),
	})
	if err != nil {
		return service.Channel{}, mapErr(err)
	}
	return toChannel(ch), nil
}

func (p *Platform) CreateTextChannel(_ context.Context, guildID string, c service.TextChannelCreate) (service.Channel, error) {
	ch, err := p.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 c.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             c.CategoryID,
		Topic:                c.Topic,
		PermissionOverwrites: toOverwrites(c.Overwrites),
	})
	if err != nil {
		return service.Channel{}, mapErr(err)
	}
	return toChannel(ch), nil
}

// EditChannel va por REST crudo: ChannelEdit de discordgo no expone
// rtc_region y su user_limit con omitempty no puede volver a 0.
func (p *Platform) EditChannel(_ context.Context, channelID string, e service.ChannelEdit) error {
	body := map[string]any{}
	if e.Name != nil {
		body["name"] = *e.Name
	}
	if e.Bitrate != nil {
		body["bitrate"] = *e.Bitrate
	}
	if e.UserLimit != nil {
		body["user_limit"] = *e.UserLimit
	}
	if e.Region != nil {
		if *e.Region == "" {
			body["rtc_region"] = nil
		} else {
			body["rtc_region"] = *e.Region
		}
	}
	if len(body) == 0 {
		return nil
	}
	endpoint := discordgo.EndpointChannel(channelID)
	_, err := p.s.RequestWithBucketID("PATCH", endpoint, body, endpoint)
	return mapErr(err)
}

func (p *Platform) DeleteChannel(_ context.Context, channelID string) error {
	_, err := p.s.ChannelDelete(channelID)
	return mapErr(err)
}

func (p *Platform) MoveMember(_ context.Context, guildID, userID, channelID string) error {
	return mapErr(p.s.GuildMemberMove(guildID, userID, &channelID))
}

func (p *Platform) SetPermission(_ context.Context, channelID string, target domain.Principal, delta domain.PermDelta) error {
	t := discordgo.PermissionOverwriteTypeRole
	if target.Kind == domain.PrincipalMember {
		t = discordgo.PermissionOverwriteTypeMember
	}
	if delta.IsZero() {
		return mapErr(p.s.ChannelPermissionDelete(channelID, target.ID))
	}
	return mapErr(p.s.ChannelPermissionSet(channelID, target.ID, t, delta.Allow, delta.Deny))
}

func (p *Platform) BotPermissionsIn(channelID string) (int64, error) {
	perms, err := p.s.UserChannelPermissions(p.s.State.User.ID, channelID)
	return perms, mapErr(err)
}

func (p *Platform) Occupants(guildID, channelID string) []string {
	g, err := p.s.State.Guild(guildID)
	if err != nil || g == nil {
		return nil
	}
	var out []string
	for _, vs := range g.VoiceStates {
		if vs.ChannelID == channelID {
			out = append(out, vs.UserID)
		}
	}
	return out
}

func (p *Platform) VoiceChannelNames(guildID, categoryID string) []string {
	g, err := p.s.State.Guild(guildID)
	if err != nil || g == nil {
		return nil
	}
	var out []string
	for _, ch := range g.Channels {
		if ch.Type == discordgo.ChannelTypeGuildVoice && ch.ParentID == categoryID {
			out = append(out, ch.Name)
		}
	}
	return out
}

func (p *Platform) MemberProfile(guildID, userID string) service.MemberProfile {
	out := service.MemberProfile{DisplayName: userID}

	if m, err := p.s.State.Member(guildID, userID); err == nil && m != nil {
		switch {
		case m.Nick != "":
			out.DisplayName = m.Nick
		case m.User != nil && m.User.GlobalName != "":
			out.DisplayName = m.User.GlobalName
		case m.User != nil:
			out.DisplayName = m.User.Username
		}
	}

	// el juego sale de la presencia, si el intent está activo
	if pr, err := p.s.State.Presence(guildID, userID); err == nil && pr != nil {
		for _, a := range pr.Activities {
			if a != nil && a.Type == discordgo.ActivityTypeGame && a.Name != "" {
				out.Game = a.Name
				break
			}
		}
	}
	return out
}

// Topes de bitrate por tier de boost del guild.
func (p *Platform) GuildBitrateLimit(guildID string) int {
	g, err := p.s.State.Guild(guildID)
	if err != nil || g == nil {
		return 96000
	}
	switch g.PremiumTier {
	case discordgo.PremiumTier3:
		return 384000
	case discordgo.PremiumTier2:
		return 256000
	case discordgo.PremiumTier1:
		return 128000
	default:
		return 96000
	}
}

func (p *Platform) rolesWithBit(guildID string, bit int64) []string {
	g, err := p.s.State.Guild(guildID)
	if err != nil || g == nil {
		return nil
	}
	var out []string
	for _, role := range g.Roles {
		if role.Managed || role.ID == guildID {
			continue
		}
		if role.Permissions&bit != 0 {
			out = append(out, role.ID)
		}
	}
	return out
}

func (p *Platform) ModeratorRoleIDs(guildID string) []string {
	return p.rolesWithBit(guildID, discordgo.PermissionModerateMembers)
}

func (p *Platform) AdminRoleIDs(guildID string) []string {
	return p.rolesWithBit(guildID, discordgo.PermissionAdministrator)
}

func (p *Platform) SendMessage(_ context.Context, channelID, content string) error {
	_, err := p.s.ChannelMessageSend(channelID, content)
	return mapErr(err)
}

func (p *Platform) SendDM(_ context.Context, userID, content string) error {
	dm, err := p.s.UserChannelCreate(userID)
	if err != nil {
		return mapErr(err)
	}
	_, err = p.s.ChannelMessageSend(dm.ID, content)
	return mapErr(err)
}

func (p *Platform) DeployControlPanel(ctx context.Context, channelID, roomName string) error {
	return p.sendPanel(ctx, channelID, roomName)
}
