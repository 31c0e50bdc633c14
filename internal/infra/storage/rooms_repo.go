package storage

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

type RoomsRepo struct{ db *sql.DB }

func NewRoomsRepo(db *sql.DB) *RoomsRepo { return &RoomsRepo{db: db} }

func (r *RoomsRepo) Get(ctx context.Context, channelID string) (RoomRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT channel_id, guild_id, source_channel_id, owner_id, text_channel_id,
       denied_member_ids, created_at, updated_at
  FROM autorooms
 WHERE channel_id = $1
`, channelID)
	return scanRoom(row)
}

func (r *RoomsRepo) Upsert(ctx context.Context, m RoomRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO autorooms
  (channel_id, guild_id, source_channel_id, owner_id, text_channel_id, denied_member_ids)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (channel_id) DO UPDATE SET
  owner_id          = EXCLUDED.owner_id,
  text_channel_id   = EXCLUDED.text_channel_id,
  denied_member_ids = EXCLUDED.denied_member_ids,
  updated_at        = now()
`, m.ChannelID, m.GuildID, m.SourceChannelID, m.OwnerID, m.TextChannelID,
		pq.Array(m.DeniedMemberIDs))
	return err
}

func (r *RoomsRepo) SetOwner(ctx context.Context, channelID string, ownerID *string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE autorooms SET owner_id = $2, updated_at = now() WHERE channel_id = $1
`, channelID, ownerID)
	return err
}

func (r *RoomsRepo) SetTextChannel(ctx context.Context, channelID string, textChannelID *string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE autorooms SET text_channel_id = $2, updated_at = now() WHERE channel_id = $1
`, channelID, textChannelID)
	return err
}

func (r *RoomsRepo) SetDenied(ctx context.Context, channelID string, denied []string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE autorooms SET denied_member_ids = $2, updated_at = now() WHERE channel_id = $1
`, channelID, pq.Array(denied))
	return err
}

func (r *RoomsRepo) Delete(ctx context.Context, channelID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM autorooms WHERE channel_id = $1`, channelID)
	return err
}

func (r *RoomsRepo) AllByGuild(ctx context.Context, guildID string) ([]RoomRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT channel_id, guild_id, source_channel_id, owner_id, text_channel_id,
       denied_member_ids, created_at, updated_at
  FROM autorooms
 WHERE guild_id = $1
 ORDER BY created_at
`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRooms(rows)
}

// All: todos los rooms registrados (reconciliación de arranque).
func (r *RoomsRepo) All(ctx context.Context) ([]RoomRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT channel_id, guild_id, source_channel_id, owner_id, text_channel_id,
       denied_member_ids, created_at, updated_at
  FROM autorooms
 ORDER BY created_at
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRooms(rows)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanRoom(row rowScanner) (RoomRecord, error) {
	var m RoomRecord
	err := row.Scan(&m.ChannelID, &m.GuildID, &m.SourceChannelID, &m.OwnerID,
		&m.TextChannelID, pq.Array(&m.DeniedMemberIDs), &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return RoomRecord{}, ErrNotFound
	}
	return m, err
}

func collectRooms(rows *sql.Rows) ([]RoomRecord, error) {
	var out []RoomRecord
	for rows.Next() {
		m, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
