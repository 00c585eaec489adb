package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("p", "platform")

// Discord implements Platform over a discordgo session.
type Discord struct {
	session *discordgo.Session
}

func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{session: session}
}

// mapError sorts discordgo errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		case http.StatusBadRequest, http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func (d *Discord) Send(ctx context.Context, userID int64, msg Message) error {
	ch, err := d.session.UserChannelCreate(FormatID(userID), discordgo.WithContext(ctx))
	if err != nil {
		return mapError(err)
	}
	_, err = d.session.ChannelMessageSendComplex(ch.ID, toMessageSend(msg), discordgo.WithContext(ctx))
	return mapError(err)
}

func (d *Discord) Guild(ctx context.Context, guildID int64) (Guild, error) {
	id := FormatID(guildID)
	if g, err := d.session.State.Guild(id); err == nil {
		return &discordGuild{d: d, id: guildID, roles: rolePositions(g.Roles)}, nil
	}
	g, err := d.session.Guild(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return &discordGuild{d: d, id: guildID, roles: rolePositions(g.Roles)}, nil
}

// Guilds returns the guilds present in the session state.
func (d *Discord) Guilds(ctx context.Context) ([]Guild, error) {
	d.session.State.RLock()
	ids := make([]int64, 0, len(d.session.State.Guilds))
	for _, g := range d.session.State.Guilds {
		ids = append(ids, ParseID(g.ID))
	}
	d.session.State.RUnlock()

	guilds := make([]Guild, 0, len(ids))
	for _, id := range ids {
		g, err := d.Guild(ctx, id)
		if err != nil {
			logger.WithError(err).WithField("guild", id).Warn("Failed to resolve guild")
			continue
		}
		guilds = append(guilds, g)
	}
	return guilds, nil
}

func rolePositions(roles []*discordgo.Role) map[string]int {
	positions := make(map[string]int, len(roles))
	for _, r := range roles {
		positions[r.ID] = r.Position
	}
	return positions
}

func toMessageSend(msg Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{Content: msg.Content}
	if msg.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{msg.Embed}
	}
	return send
}

type discordGuild struct {
	d     *Discord
	id    int64
	roles map[string]int
}

func (g *discordGuild) ID() int64 { return g.id }

func (g *discordGuild) Unban(ctx context.Context, userID int64, reason string) error {
	return mapError(g.d.session.GuildBanDelete(FormatID(g.id), FormatID(userID),
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason)))
}

func (g *discordGuild) Ban(ctx context.Context, userID int64, reason string, deleteMessageDays int) error {
	return mapError(g.d.session.GuildBanCreateWithReason(FormatID(g.id), FormatID(userID), reason, deleteMessageDays,
		discordgo.WithContext(ctx)))
}

func (g *discordGuild) Invites(ctx context.Context) ([]Invite, error) {
	raw, err := g.d.session.GuildInvites(FormatID(g.id), discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	invites := make([]Invite, 0, len(raw))
	for _, inv := range raw {
		i := Invite{Code: inv.Code, Uses: inv.Uses}
		if inv.Inviter != nil {
			i.InviterID = ParseID(inv.Inviter.ID)
		}
		invites = append(invites, i)
	}
	return invites, nil
}

func (g *discordGuild) CreateCategory(ctx context.Context, name string) (Category, error) {
	ch, err := g.d.session.GuildChannelCreateComplex(FormatID(g.id), discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return &discordCategory{g: g, id: ParseID(ch.ID)}, nil
}

func (g *discordGuild) Member(ctx context.Context, userID int64) (Member, error) {
	m, err := g.d.session.GuildMember(FormatID(g.id), FormatID(userID), discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return g.wrap(m), nil
}

// Members pages through the whole member list.
func (g *discordGuild) Members(ctx context.Context) ([]Member, error) {
	var (
		members []Member
		after   string
	)
	for {
		page, err := g.d.session.GuildMembers(FormatID(g.id), after, 1000, discordgo.WithContext(ctx))
		if err != nil {
			return nil, mapError(err)
		}
		for _, m := range page {
			members = append(members, g.wrap(m))
		}
		if len(page) < 1000 {
			return members, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (g *discordGuild) SendChannelMessage(ctx context.Context, channelID int64, msg Message) error {
	_, err := g.d.session.ChannelMessageSendComplex(FormatID(channelID), toMessageSend(msg), discordgo.WithContext(ctx))
	return mapError(err)
}

func (g *discordGuild) wrap(m *discordgo.Member) *discordMember {
	return &discordMember{g: g, m: m}
}

type discordCategory struct {
	g  *discordGuild
	id int64
}

func (c *discordCategory) ID() int64 { return c.id }

func (c *discordCategory) CreateTextChannel(ctx context.Context, name string, overwrites []*discordgo.PermissionOverwrite) (int64, error) {
	ch, err := c.g.d.session.GuildChannelCreateComplex(FormatID(c.g.id), discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             FormatID(c.id),
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return 0, mapError(err)
	}
	return ParseID(ch.ID), nil
}

type discordMember struct {
	g *discordGuild
	m *discordgo.Member
}

func (m *discordMember) UserID() int64 {
	if m.m.User == nil {
		return 0
	}
	return ParseID(m.m.User.ID)
}

func (m *discordMember) TopRolePosition() int {
	return TopRolePosition(m.m.Roles, m.g.roles)
}

func (m *discordMember) TimedOut() bool {
	return m.m.CommunicationDisabledUntil != nil && m.m.CommunicationDisabledUntil.After(time.Now())
}

func (m *discordMember) Roles() []int64 {
	roles := make([]int64, 0, len(m.m.Roles))
	for _, r := range m.m.Roles {
		roles = append(roles, ParseID(r))
	}
	return roles
}

func (m *discordMember) JoinedAt() time.Time { return m.m.JoinedAt }

func (m *discordMember) IsBot() bool { return m.m.User != nil && m.m.User.Bot }

func (m *discordMember) Kick(ctx context.Context, reason string) error {
	return mapError(m.g.d.session.GuildMemberDeleteWithReason(FormatID(m.g.id), m.m.User.ID, reason,
		discordgo.WithContext(ctx)))
}

func (m *discordMember) AddRole(ctx context.Context, roleID int64) error {
	return mapError(m.g.d.session.GuildMemberRoleAdd(FormatID(m.g.id), m.m.User.ID, FormatID(roleID),
		discordgo.WithContext(ctx)))
}

func (m *discordMember) Send(ctx context.Context, msg Message) error {
	return m.g.d.Send(ctx, m.UserID(), msg)
}

// TopRolePosition returns the highest position among roleIDs according to
// positions, or 0 when none is known.
func TopRolePosition(roleIDs []string, positions map[string]int) int {
	top := 0
	for _, id := range roleIDs {
		if p, ok := positions[id]; ok && p > top {
			top = p
		}
	}
	return top
}
