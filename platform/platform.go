// Package platform is the boundary between the bot's logic and the chat
// platform. Scheduler and handlers depend on these interfaces; the discordgo
// implementation lives in discord.go.
package platform

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
)

var (
	// ErrForbidden means the bot lacks the permission for the action, or the
	// user does not accept direct messages.
	ErrForbidden = errors.New("forbidden")
	// ErrTransport covers network failures, rate limits and server errors.
	ErrTransport = errors.New("transport error")
	// ErrInvalidArgument means the platform rejected or does not know the
	// referenced object.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Message is an outgoing message. Embed is optional.
type Message struct {
	Content string
	Embed   *discordgo.MessageEmbed
}

type Invite struct {
	Code      string
	Uses      int
	InviterID int64
}

// Notifier delivers direct messages.
type Notifier interface {
	Send(ctx context.Context, userID int64, msg Message) error
}

// Platform resolves guilds and sends direct messages.
type Platform interface {
	Notifier
	Guild(ctx context.Context, guildID int64) (Guild, error)
	Guilds(ctx context.Context) ([]Guild, error)
}

type Guild interface {
	ID() int64
	Unban(ctx context.Context, userID int64, reason string) error
	Ban(ctx context.Context, userID int64, reason string, deleteMessageDays int) error
	Invites(ctx context.Context) ([]Invite, error)
	CreateCategory(ctx context.Context, name string) (Category, error)
	Member(ctx context.Context, userID int64) (Member, error)
	Members(ctx context.Context) ([]Member, error)
	SendChannelMessage(ctx context.Context, channelID int64, msg Message) error
}

type Category interface {
	ID() int64
	CreateTextChannel(ctx context.Context, name string, overwrites []*discordgo.PermissionOverwrite) (int64, error)
}

type Member interface {
	UserID() int64
	// TopRolePosition is the position of the member's highest role, 0 for
	// members with no roles.
	TopRolePosition() int
	TimedOut() bool
	Roles() []int64
	JoinedAt() time.Time
	IsBot() bool
	Kick(ctx context.Context, reason string) error
	AddRole(ctx context.Context, roleID int64) error
	Send(ctx context.Context, msg Message) error
}

// ParseID converts a platform snowflake string to an integer id. Malformed
// ids yield 0.
func ParseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// IsTransient reports whether the action may succeed when retried later.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransport)
}
