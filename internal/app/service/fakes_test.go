package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jose-valero/autoroom-bot/internal/domain"
	"github.com/jose-valero/autoroom-bot/internal/infra/storage"
)

// fakePlatform: implementación en memoria de Platform con log de llamadas,
// para poder afirmar sobre efectos remotos (creaciones, borrados, moves).
type fakePlatform struct {
	mu sync.Mutex

	botID      string
	everyoneID string
	channels   map[string]Channel
	occupants  map[string][]string // channelID -> user IDs
	profiles   map[string]MemberProfile
	perms      map[string]int64 // channelID -> permisos del bot
	modRoles   []string
	adminRoles []string
	bitrateCap int

	nextID int
	calls  []string

	failMove   bool
	failCreate bool
	permDelay  time.Duration
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		botID:      "bot-1",
		everyoneID: "everyone-1",
		channels:   map[string]Channel{},
		occupants:  map[string][]string{},
		profiles:   map[string]MemberProfile{},
		perms:      map[string]int64{},
		bitrateCap: 96000,
	}
}

func (f *fakePlatform) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// called informa si algún call registrado contiene el fragmento.
func (f *fakePlatform) called(frag string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.Contains(c, frag) {
			return true
		}
	}
	return false
}

func (f *fakePlatform) addChannel(c Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[c.ID] = c
	// por defecto el bot tiene todo lo que necesita
	if _, ok := f.perms[c.ID]; !ok {
		f.perms[c.ID] = domain.BotRoomPerms | domain.BotTextPerms.Allow
	}
}

func (f *fakePlatform) BotUserID() string                  { return f.botID }
func (f *fakePlatform) EveryoneRoleID(string) string       { return f.everyoneID }
func (f *fakePlatform) GuildBitrateLimit(string) int       { return f.bitrateCap }
func (f *fakePlatform) ModeratorRoleIDs(string) []string   { return f.modRoles }
func (f *fakePlatform) AdminRoleIDs(string) []string       { return f.adminRoles }

func (f *fakePlatform) Channel(_ context.Context, id string) (Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.channels[id]
	if !ok {
		return Channel{}, ErrNotFound
	}
	return c, nil
}

func (f *fakePlatform) CreateVoiceChannel(_ context.Context, guildID string, c VoiceChannelCreate) (Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return Channel{}, fmt.Errorf("create: boom")
	}
	f.nextID++
	ch := Channel{
		ID:        fmt.Sprintf("voice-%d", f.nextID),
		GuildID:   guildID,
		Name:      c.Name,
		ParentID:  c.CategoryID,
		Kind:      ChannelVoice,
		Bitrate:   c.Bitrate,
		UserLimit: c.UserLimit,
	}
	f.channels[ch.ID] = ch
	f.perms[ch.ID] = domain.BotRoomPerms | domain.BotTextPerms.Allow
	f.record("create-voice %s name=%s", ch.ID, c.Name)
	return ch, nil
}

func (f *fakePlatform) CreateTextChannel(_ context.Context, guildID string, c TextChannelCreate) (Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ch := Channel{
		ID:       fmt.Sprintf("text-%d", f.nextID),
		GuildID:  guildID,
		Name:     c.Name,
		ParentID: c.CategoryID,
		Kind:     ChannelText,
	}
	f.channels[ch.ID] = ch
	f.record("create-text %s name=%s", ch.ID, c.Name)
	return ch, nil
}

func (f *fakePlatform) EditChannel(_ context.Context, id string, e ChannelEdit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.channels[id]
	if !ok {
		return ErrNotFound
	}
	if e.Name != nil {
		c.Name = *e.Name
	}
	if e.Bitrate != nil {
		c.Bitrate = *e.Bitrate
	}
	if e.UserLimit != nil {
		c.UserLimit = *e.UserLimit
	}
	f.channels[id] = c
	f.record("edit %s", id)
	return nil
}

func (f *fakePlatform) DeleteChannel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[id]; !ok {
		return ErrNotFound
	}
	delete(f.channels, id)
	f.record("delete %s", id)
	return nil
}

func (f *fakePlatform) MoveMember(_ context.Context, guildID, userID, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMove {
		return fmt.Errorf("move: boom")
	}
	f.occupants[channelID] = append(f.occupants[channelID], userID)
	f.record("move %s -> %s", userID, channelID)
	return nil
}

func (f *fakePlatform) SetPermission(_ context.Context, channelID string, target domain.Principal, delta domain.PermDelta) error {
	if f.permDelay > 0 {
		time.Sleep(f.permDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[channelID]; !ok {
		return ErrNotFound
	}
	f.record("perm %s target=%s allow=%d deny=%d", channelID, target.ID, delta.Allow, delta.Deny)
	return nil
}

func (f *fakePlatform) BotPermissionsIn(channelID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.perms[channelID]
	if !ok {
		return 0, ErrNotFound
	}
	return p, nil
}

func (f *fakePlatform) Occupants(_, channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.occupants[channelID]...)
}

func (f *fakePlatform) VoiceChannelNames(_, categoryID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, c := range f.channels {
		if c.Kind == ChannelVoice && c.ParentID == categoryID {
			names = append(names, c.Name)
		}
	}
	return names
}

func (f *fakePlatform) MemberProfile(_, userID string) MemberProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		return p
	}
	return MemberProfile{DisplayName: userID}
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("msg %s: %s", channelID, content)
	return nil
}

func (f *fakePlatform) SendDM(_ context.Context, userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("dm %s", userID)
	return nil
}

func (f *fakePlatform) DeployControlPanel(_ context.Context, channelID, roomName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("panel %s", channelID)
	return nil
}

// fakeRooms: RoomStore en memoria.
type fakeRooms struct {
	mu    sync.Mutex
	rooms map[string]storage.RoomRecord
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{rooms: map[string]storage.RoomRecord{}}
}

func (f *fakeRooms) Get(_ context.Context, id string) (storage.RoomRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return storage.RoomRecord{}, storage.ErrNotFound
	}
	return r, nil
}

func (f *fakeRooms) Upsert(_ context.Context, m storage.RoomRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[m.ChannelID] = m
	return nil
}

func (f *fakeRooms) SetOwner(_ context.Context, id string, ownerID *string) error {
	return f.patch(id, func(r *storage.RoomRecord) { r.OwnerID = ownerID })
}

func (f *fakeRooms) SetTextChannel(_ context.Context, id string, textID *string) error {
	return f.patch(id, func(r *storage.RoomRecord) { r.TextChannelID = textID })
}

func (f *fakeRooms) SetDenied(_ context.Context, id string, denied []string) error {
	return f.patch(id, func(r *storage.RoomRecord) { r.DeniedMemberIDs = denied })
}

func (f *fakeRooms) patch(id string, fn func(*storage.RoomRecord)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return storage.ErrNotFound
	}
	fn(&r)
	f.rooms[id] = r
	return nil
}

func (f *fakeRooms) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, id)
	return nil
}

func (f *fakeRooms) AllByGuild(_ context.Context, guildID string) ([]storage.RoomRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.RoomRecord
	for _, r := range f.rooms {
		if r.GuildID == guildID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRooms) All(_ context.Context) ([]storage.RoomRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.RoomRecord
	for _, r := range f.rooms {
		out = append(out, r)
	}
	return out, nil
}

// fakeConfig: ConfigStore + RawConfig en memoria, con los documentos
// guardados igual que en la tabla (scope/guild/entry -> doc).
type fakeConfig struct {
	mu      sync.Mutex
	version int
	docs    map[string]map[string]any // "scope/guild/entry" -> doc

	policies map[string]storage.GuildPolicy
	sources  map[string]storage.SourceConfig // "guild/channel"
}

func newFakeConfig() *fakeConfig {
	return &fakeConfig{
		docs:     map[string]map[string]any{},
		policies: map[string]storage.GuildPolicy{},
		sources:  map[string]storage.SourceConfig{},
	}
}

func (f *fakeConfig) GuildPolicy(_ context.Context, guildID string) (storage.GuildPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.policies[guildID]; ok {
		return p, nil
	}
	return storage.DefaultGuildPolicy(guildID), nil
}

func (f *fakeConfig) SetGuildPolicy(_ context.Context, p storage.GuildPolicy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.policies[p.GuildID] = p
	return nil
}

func (f *fakeConfig) SourceConfig(_ context.Context, guildID, channelID string) (storage.SourceConfig, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.sources[guildID+"/"+channelID]
	return c, ok, nil
}

func (f *fakeConfig) SetSourceConfig(_ context.Context, c storage.SourceConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources[c.GuildID+"/"+c.SourceChannelID] = c
	return nil
}

func (f *fakeConfig) ClearSourceConfig(_ context.Context, guildID, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sources, guildID+"/"+channelID)
	return nil
}

func (f *fakeConfig) SourceConfigs(_ context.Context, guildID string) ([]storage.SourceConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.SourceConfig
	for _, c := range f.sources {
		if c.GuildID == guildID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConfig) SchemaVersion(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version, nil
}

func (f *fakeConfig) SetSchemaVersion(_ context.Context, v int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = v
	return nil
}

func docKey(scope, guildID, entryID string) string { return scope + "/" + guildID + "/" + entryID }

func (f *fakeConfig) Get(_ context.Context, scope, guildID, entryID string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[docKey(scope, guildID, entryID)]
	if !ok {
		return map[string]any{}, nil
	}
	return cloneDoc(d), nil
}

func (f *fakeConfig) Set(_ context.Context, scope, guildID, entryID string, doc map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[docKey(scope, guildID, entryID)] = cloneDoc(doc)
	return nil
}

func (f *fakeConfig) ClearKey(_ context.Context, scope, guildID, entryID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.docs[docKey(scope, guildID, entryID)]; ok {
		delete(d, key)
	}
	return nil
}

func (f *fakeConfig) Clear(_ context.Context, scope, guildID, entryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, docKey(scope, guildID, entryID))
	return nil
}

func (f *fakeConfig) All(_ context.Context, scope string) ([]storage.RawEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.RawEntry
	for k, d := range f.docs {
		parts := strings.SplitN(k, "/", 3)
		if parts[0] != scope {
			continue
		}
		out = append(out, storage.RawEntry{Scope: parts[0], GuildID: parts[1], EntryID: parts[2], Doc: cloneDoc(d)})
	}
	return out, nil
}

func cloneDoc(d map[string]any) map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
