package utils

import (
	"time"

	"discord-modbot/platform"

	"github.com/patrickmn/go-cache"
)

// InviteCache remembers the use counts of each guild's invites so a join
// can be attributed to the invite whose count went up.
type InviteCache struct {
	c *cache.Cache
}

func NewInviteCache() *InviteCache {
	return &InviteCache{c: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (ic *InviteCache) key(guildID int64) string {
	return platform.FormatID(guildID)
}

func (ic *InviteCache) snapshot(guildID int64) map[string]platform.Invite {
	if v, ok := ic.c.Get(ic.key(guildID)); ok {
		return v.(map[string]platform.Invite)
	}
	return nil
}

// Snapshot replaces the stored invites of the guild.
func (ic *InviteCache) Snapshot(guildID int64, invites []platform.Invite) {
	m := make(map[string]platform.Invite, len(invites))
	for _, inv := range invites {
		m[inv.Code] = inv
	}
	ic.c.Set(ic.key(guildID), m, cache.NoExpiration)
}

// Put records a newly created invite.
func (ic *InviteCache) Put(guildID int64, inv platform.Invite) {
	prev := ic.snapshot(guildID)
	m := make(map[string]platform.Invite, len(prev)+1)
	for k, v := range prev {
		m[k] = v
	}
	m[inv.Code] = inv
	ic.c.Set(ic.key(guildID), m, cache.NoExpiration)
}

// Forget drops a deleted invite.
func (ic *InviteCache) Forget(guildID int64, code string) {
	prev := ic.snapshot(guildID)
	m := make(map[string]platform.Invite, len(prev))
	for k, v := range prev {
		if k != code {
			m[k] = v
		}
	}
	ic.c.Set(ic.key(guildID), m, cache.NoExpiration)
}

// Attribute compares current against the stored snapshot and returns the
// single invite that was used since. A single-use invite disappears when
// used, so a lone vanished invite counts when no count went up. The
// snapshot is replaced by current.
func (ic *InviteCache) Attribute(guildID int64, current []platform.Invite) (platform.Invite, bool) {
	prev := ic.snapshot(guildID)
	defer ic.Snapshot(guildID, current)

	var used []platform.Invite
	seen := make(map[string]bool, len(current))
	for _, inv := range current {
		seen[inv.Code] = true
		if inv.Uses > prev[inv.Code].Uses {
			used = append(used, inv)
		}
	}
	if len(used) == 1 {
		return used[0], true
	}
	if len(used) > 1 {
		return platform.Invite{}, false
	}

	var vanished []platform.Invite
	for code, inv := range prev {
		if !seen[code] {
			vanished = append(vanished, inv)
		}
	}
	if len(vanished) == 1 {
		inv := vanished[0]
		inv.Uses++
		return inv, true
	}
	return platform.Invite{}, false
}
