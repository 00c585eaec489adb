package database

import (
	"context"
	"time"

	"discord-modbot/model"
)

// Usernames is the bounded history of account usernames.
type Usernames struct {
	h *boundedHistory
}

// NewUsernames keeps at most limit usernames per user. When full it trims
// from the newest record.
func NewUsernames(store *Store, limit int) *Usernames {
	return &Usernames{h: &boundedHistory{
		store: store, table: "usernames", strategy: TrimFromNewest, limit: limit, now: time.Now,
	}}
}

func (r *Usernames) Add(ctx context.Context, userID int64, name string) (int64, error) {
	return r.h.add(ctx, historySubject{userID: userID}, name)
}

// History returns the stored usernames, oldest first.
func (r *Usernames) History(ctx context.Context, userID int64) ([]model.NameRecord, error) {
	return r.h.history(ctx, historySubject{userID: userID})
}

func (r *Usernames) Latest(ctx context.Context, userID int64) (model.NameRecord, error) {
	return r.h.latest(ctx, historySubject{userID: userID})
}

func (r *Usernames) Delete(ctx context.Context, userID int64) error {
	return r.h.deleteAll(ctx, historySubject{userID: userID})
}

// GlobalNames is the bounded history of display names.
type GlobalNames struct {
	h *boundedHistory
}

func NewGlobalNames(store *Store, limit int) *GlobalNames {
	return &GlobalNames{h: &boundedHistory{
		store: store, table: "global_names", strategy: TrimFromOldest, limit: limit, now: time.Now,
	}}
}

func (r *GlobalNames) Add(ctx context.Context, userID int64, name string) (int64, error) {
	return r.h.add(ctx, historySubject{userID: userID}, name)
}

func (r *GlobalNames) History(ctx context.Context, userID int64) ([]model.NameRecord, error) {
	return r.h.history(ctx, historySubject{userID: userID})
}

func (r *GlobalNames) Latest(ctx context.Context, userID int64) (model.NameRecord, error) {
	return r.h.latest(ctx, historySubject{userID: userID})
}

func (r *GlobalNames) Delete(ctx context.Context, userID int64) error {
	return r.h.deleteAll(ctx, historySubject{userID: userID})
}

// Nicknames is the bounded, guild-scoped history of member nicknames.
type Nicknames struct {
	h *boundedHistory
}

func NewNicknames(store *Store, limit int) *Nicknames {
	return &Nicknames{h: &boundedHistory{
		store: store, table: "nicknames", scoped: true, strategy: TrimFromOldest, limit: limit, now: time.Now,
	}}
}

func (r *Nicknames) Add(ctx context.Context, guildID, userID int64, name string) (int64, error) {
	return r.h.add(ctx, historySubject{userID: userID, guildID: guildID}, name)
}

func (r *Nicknames) History(ctx context.Context, guildID, userID int64) ([]model.NameRecord, error) {
	return r.h.history(ctx, historySubject{userID: userID, guildID: guildID})
}

func (r *Nicknames) Latest(ctx context.Context, guildID, userID int64) (model.NameRecord, error) {
	return r.h.latest(ctx, historySubject{userID: userID, guildID: guildID})
}

func (r *Nicknames) Delete(ctx context.Context, guildID, userID int64) error {
	return r.h.deleteAll(ctx, historySubject{userID: userID, guildID: guildID})
}
