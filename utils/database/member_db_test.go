package database

import (
	"context"
	"testing"
	"time"

	"discord-modbot/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
)

func TestTimeZoneDefaultsToUTC(t *testing.T) {
	ctx := context.Background()
	repo := NewTimeZones(newTestStore(t))

	tz, err := repo.GetUserTimeZone(ctx, 77)
	require.NoError(t, err)
	assert.False(t, tz.ID.Valid)
	assert.Equal(t, int64(77), tz.UserID)
	assert.Equal(t, model.DefaultTimeZone, tz.TimeZone)

	id, err := repo.Set(ctx, 77, "Europe/Warsaw")
	require.NoError(t, err)
	again, err := repo.Set(ctx, 77, "Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	tz, err = repo.GetUserTimeZone(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, null.Int64From(id), tz.ID)
	assert.Equal(t, "Asia/Tokyo", tz.TimeZone)

	require.NoError(t, repo.Delete(ctx, 77))
	tz, err = repo.GetUserTimeZone(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTimeZone, tz.TimeZone)
}

func TestExperienceAwardIsRateLimited(t *testing.T) {
	ctx := context.Background()
	repo := NewExperience(newTestStore(t))
	now := time.Date(2025, 4, 4, 10, 0, 0, 0, time.UTC)

	ok, err := repo.Award(ctx, testGuild, 1, 10, now, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Award(ctx, testGuild, 1, 10, now.Add(30*time.Second), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Award(ctx, testGuild, 1, 10, now.Add(time.Minute), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.Award(ctx, testGuild, 2, 5, now, time.Minute)
	require.NoError(t, err)

	board, err := repo.Leaderboard(ctx, testGuild, 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, int64(1), board[0].UserID)
	assert.Equal(t, int64(20), board[0].Amount)
}

func TestLeftMembers(t *testing.T) {
	ctx := context.Background()
	repo := NewLeftMembers(newTestStore(t))
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.Add(ctx, testGuild, 3, at.Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.Add(ctx, testGuild, 3, at)
	require.NoError(t, err)

	left, err := repo.ListForUser(ctx, testGuild, 3)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, at, left[0].LeaveDate)
}

func TestUtilityChannelUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewUtilityChannels(newTestStore(t))

	_, err := repo.Add(ctx, testGuild, 55, model.PurposeLog)
	require.NoError(t, err)
	_, err = repo.Add(ctx, testGuild, 55, model.PurposeRules)
	require.NoError(t, err)
	_, err = repo.Add(ctx, testGuild, 55, model.PurposeLog)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	is, err := repo.Is(ctx, testGuild, 55, model.PurposeLog)
	require.NoError(t, err)
	assert.True(t, is)

	require.NoError(t, repo.Remove(ctx, testGuild, 55, model.PurposeLog))
	assert.ErrorIs(t, repo.Remove(ctx, testGuild, 55, model.PurposeLog), ErrNotFound)

	logs, err := repo.ListByPurpose(ctx, testGuild, model.PurposeLog)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestDeletingRoleClearsPassphrase(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	roles := NewRoleCategories(store)
	phrases := NewPassphrases(store)

	category, err := roles.AddCategory(ctx, testGuild, model.CategoryVerified)
	require.NoError(t, err)
	role, err := roles.AddRole(ctx, category, 900)
	require.NoError(t, err)

	_, err = phrases.Add(ctx, testGuild, "open sesame", null.Int64From(role))
	require.NoError(t, err)

	verified, err := roles.RolesInCategory(ctx, testGuild, model.CategoryVerified)
	require.NoError(t, err)
	require.Len(t, verified, 1)
	assert.Equal(t, int64(900), verified[0].RoleID)

	require.NoError(t, roles.DeleteRole(ctx, role))

	p, err := phrases.Match(ctx, testGuild, "open sesame")
	require.NoError(t, err)
	assert.False(t, p.RoleID.Valid)
}

func TestDeletingCategoryCascadesRoles(t *testing.T) {
	ctx := context.Background()
	roles := NewRoleCategories(newTestStore(t))

	category, err := roles.AddCategory(ctx, testGuild, model.CategoryModerator)
	require.NoError(t, err)
	role, err := roles.AddRole(ctx, category, 1)
	require.NoError(t, err)

	require.NoError(t, roles.DeleteCategory(ctx, category))
	_, err = roles.GetRole(ctx, role)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnverifiedReminderHistoryDeleteForGuild(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	messages := NewUnverifiedReminderMessages(store)
	history := NewUnverifiedReminderHistory(store)
	now := time.Now()

	late, err := messages.Add(ctx, testGuild, "still there?", 48*time.Hour)
	require.NoError(t, err)
	early, err := messages.Add(ctx, testGuild, "please verify", time.Hour)
	require.NoError(t, err)
	other, err := messages.Add(ctx, testGuild+1, "hello", time.Hour)
	require.NoError(t, err)

	list, err := messages.List(ctx, testGuild)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early, list[0].ID)
	assert.Equal(t, late, list[1].ID)

	_, err = history.Add(ctx, 5, early, now)
	require.NoError(t, err)
	_, err = history.Add(ctx, 5, other, now)
	require.NoError(t, err)

	delivered, err := history.Delivered(ctx, 5, early)
	require.NoError(t, err)
	assert.True(t, delivered)

	require.NoError(t, history.DeleteForGuild(ctx, testGuild))

	delivered, err = history.Delivered(ctx, 5, early)
	require.NoError(t, err)
	assert.False(t, delivered)
	delivered, err = history.Delivered(ctx, 5, other)
	require.NoError(t, err)
	assert.True(t, delivered)

	require.NoError(t, messages.Delete(ctx, other))
	rest, err := history.ListForUser(ctx, testGuild+1, 5)
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestKickRuleIsUniquePerGuild(t *testing.T) {
	ctx := context.Background()
	rules := NewUnverifiedKickRules(newTestStore(t))

	id, err := rules.Set(ctx, testGuild, time.Hour)
	require.NoError(t, err)
	again, err := rules.Set(ctx, testGuild, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	rule, err := rules.Get(ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, int64(7200), rule.TimedeltaSeconds)

	require.NoError(t, rules.Delete(ctx, testGuild))
	_, err = rules.Get(ctx, testGuild)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerificationAnswersCascade(t *testing.T) {
	ctx := context.Background()
	repo := NewVerificationQuestions(newTestStore(t))

	q, err := repo.Add(ctx, testGuild, "What is the rule about spam?")
	require.NoError(t, err)
	_, err = repo.AddAnswer(ctx, q, "no spam")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteForGuild(ctx, testGuild))
	answers, err := repo.Answers(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, answers)
}
