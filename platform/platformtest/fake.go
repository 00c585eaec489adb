// Package platformtest provides in-memory implementations of the platform
// interfaces for tests.
package platformtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"discord-modbot/platform"

	"github.com/bwmarrin/discordgo"
)

// Sent is a message delivered by the fake.
type Sent struct {
	UserID    int64
	ChannelID int64
	Message   platform.Message
}

// Platform is a fake platform.Platform. Errors set in SendErr are returned
// for direct messages to that user.
type Platform struct {
	mu      sync.Mutex
	guilds  map[int64]*Guild
	SendErr map[int64]error
	DMs     []Sent
}

func New() *Platform {
	return &Platform{guilds: make(map[int64]*Guild), SendErr: make(map[int64]error)}
}

// AddGuild registers a guild and returns it for further setup.
func (p *Platform) AddGuild(id int64) *Guild {
	p.mu.Lock()
	defer p.mu.Unlock()
	g := &Guild{p: p, id: id, Bans: make(map[int64]string), members: make(map[int64]*Member)}
	p.guilds[id] = g
	return g
}

func (p *Platform) Send(_ context.Context, userID int64, msg platform.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.SendErr[userID]; err != nil {
		return err
	}
	p.DMs = append(p.DMs, Sent{UserID: userID, Message: msg})
	return nil
}

// DMsTo returns the direct messages delivered to userID.
func (p *Platform) DMsTo(userID int64) []platform.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []platform.Message
	for _, s := range p.DMs {
		if s.UserID == userID {
			out = append(out, s.Message)
		}
	}
	return out
}

func (p *Platform) Guild(_ context.Context, guildID int64) (platform.Guild, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.guilds[guildID]
	if !ok {
		return nil, platform.ErrInvalidArgument
	}
	return g, nil
}

func (p *Platform) Guilds(context.Context) ([]platform.Guild, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]int64, 0, len(p.guilds))
	for id := range p.guilds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	guilds := make([]platform.Guild, 0, len(ids))
	for _, id := range ids {
		guilds = append(guilds, p.guilds[id])
	}
	return guilds, nil
}

// Guild is a fake platform.Guild. Bans maps banned users to the reason.
type Guild struct {
	p        *Platform
	id       int64
	members  map[int64]*Member
	Bans     map[int64]string
	BanDays  map[int64]int
	Unbanned []int64
	UnbanErr error
	BanErr   error
	Invite   []platform.Invite
	Channel  []Sent
	nextID   int64
}

func (g *Guild) ID() int64 { return g.id }

// AddMember registers a member of the guild.
func (g *Guild) AddMember(userID int64, topRole int, joined time.Time, roles ...int64) *Member {
	g.p.mu.Lock()
	defer g.p.mu.Unlock()
	m := &Member{g: g, userID: userID, top: topRole, joined: joined, roles: roles}
	g.members[userID] = m
	return m
}

func (g *Guild) Unban(_ context.Context, userID int64, _ string) error {
	g.p.mu.Lock()
	defer g.p.mu.Unlock()
	if g.UnbanErr != nil {
		return g.UnbanErr
	}
	delete(g.Bans, userID)
	g.Unbanned = append(g.Unbanned, userID)
	return nil
}

func (g *Guild) Ban(_ context.Context, userID int64, reason string, deleteMessageDays int) error {
	g.p.mu.Lock()
	defer g.p.mu.Unlock()
	if g.BanErr != nil {
		return g.BanErr
	}
	g.Bans[userID] = reason
	if g.BanDays == nil {
		g.BanDays = make(map[int64]int)
	}
	g.BanDays[userID] = deleteMessageDays
	delete(g.members, userID)
	return nil
}

func (g *Guild) Invites(context.Context) ([]platform.Invite, error) {
	g.p.mu.Lock()
	defer g.p.mu.Unlock()
	return append([]platform.Invite(nil), g.Invite...), nil
}

func (g *Guild) CreateCategory(_ context.Context, name string) (platform.Category, error) {
	g.p.mu.Lock()
	defer g.p.mu.Unlock()
	g.nextID++
	return &Category{g: g, id: g.nextID, Name: name}, nil
}

func (g *Guild) Member(_ context.Context, userID int64) (platform.Member, error) {
	g.p.mu.Lock()
	defer g.p.mu.Unlock()
	m, ok := g.members[userID]
	if !ok {
		return nil, platform.ErrInvalidArgument
	}
	return m, nil
}

func (g *Guild) Members(context.Context) ([]platform.Member, error) {
	g.p.mu.Lock()
	defer g.p.mu.Unlock()
	ids := make([]int64, 0, len(g.members))
	for id := range g.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	members := make([]platform.Member, 0, len(ids))
	for _, id := range ids {
		members = append(members, g.members[id])
	}
	return members, nil
}

func (g *Guild) SendChannelMessage(_ context.Context, channelID int64, msg platform.Message) error {
	g.p.mu.Lock()
	defer g.p.mu.Unlock()
	g.Channel = append(g.Channel, Sent{ChannelID: channelID, Message: msg})
	return nil
}

// ChannelMessages returns what was posted to channelID.
func (g *Guild) ChannelMessages(channelID int64) []platform.Message {
	g.p.mu.Lock()
	defer g.p.mu.Unlock()
	var out []platform.Message
	for _, s := range g.Channel {
		if s.ChannelID == channelID {
			out = append(out, s.Message)
		}
	}
	return out
}

// Kicked reports whether the member was kicked.
func (g *Guild) Kicked(userID int64) bool {
	g.p.mu.Lock()
	defer g.p.mu.Unlock()
	_, present := g.members[userID]
	return !present
}

type Category struct {
	g        *Guild
	id       int64
	Name     string
	Channels []string
}

func (c *Category) ID() int64 { return c.id }

func (c *Category) CreateTextChannel(_ context.Context, name string, _ []*discordgo.PermissionOverwrite) (int64, error) {
	c.g.p.mu.Lock()
	defer c.g.p.mu.Unlock()
	c.g.nextID++
	c.Channels = append(c.Channels, name)
	return c.g.nextID, nil
}

// Member is a fake platform.Member.
type Member struct {
	g       *Guild
	userID  int64
	top     int
	joined  time.Time
	roles   []int64
	Bot     bool
	Timeout bool
	KickErr error
	RoleErr error
}

func (m *Member) UserID() int64        { return m.userID }
func (m *Member) TopRolePosition() int { return m.top }
func (m *Member) TimedOut() bool       { return m.Timeout }
func (m *Member) Roles() []int64       { return m.roles }
func (m *Member) JoinedAt() time.Time  { return m.joined }
func (m *Member) IsBot() bool          { return m.Bot }

func (m *Member) Kick(context.Context, string) error {
	m.g.p.mu.Lock()
	defer m.g.p.mu.Unlock()
	if m.KickErr != nil {
		return m.KickErr
	}
	delete(m.g.members, m.userID)
	return nil
}

func (m *Member) AddRole(_ context.Context, roleID int64) error {
	m.g.p.mu.Lock()
	defer m.g.p.mu.Unlock()
	if m.RoleErr != nil {
		return m.RoleErr
	}
	for _, r := range m.roles {
		if r == roleID {
			return nil
		}
	}
	m.roles = append(m.roles, roleID)
	return nil
}

func (m *Member) Send(ctx context.Context, msg platform.Message) error {
	return m.g.p.Send(ctx, m.userID, msg)
}
