package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashradio/chat-server/internal/database"
	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/internal/roles"
)

func newCommandFixture(t *testing.T) (*database.Memory, *ChannelService, *CommandService) {
	store, channels, commands, _ := newCommandFixtureWithSessions(t)
	return store, channels, commands
}

func newCommandFixtureWithSessions(t *testing.T) (*database.Memory, *ChannelService, *CommandService, *fakeSessions) {
	t.Helper()
	store := database.NewMemory()
	channels := NewChannelService(store, testLogger())
	sessions := &fakeSessions{channels: make(map[uuid.UUID]uuid.UUID)}
	moderation := NewModerationService(store, channels, sessions, testLogger())
	xp := NewXPService(store, testLogger())
	commands := NewCommandService(store, channels, moderation, xp, sessions, testLogger())
	return store, channels, commands, sessions
}

func TestExecutePassThrough(t *testing.T) {
	store, _, commands := newCommandFixture(t)
	user := seedUser(t, store, "fan42", roles.User)
	channel := seedChannel(t, store, "general")

	// Un message ordinaire n'est pas une commande.
	assert.Nil(t, commands.Execute(user, channel.ID, "bonjour tout le monde"))
	assert.Nil(t, commands.Execute(user, channel.ID, "5/5 pour ce morceau"))
}

func TestExecuteUnknownCommand(t *testing.T) {
	store, _, commands := newCommandFixture(t)
	user := seedUser(t, store, "fan42", roles.User)
	channel := seedChannel(t, store, "general")

	result := commands.Execute(user, channel.ID, "/danse")
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, "❌ Commande '/danse' inconnue. Tapez /help pour voir les commandes disponibles.", result.Message)
}

func TestMuteCommandAsUser(t *testing.T) {
	store, _, commands := newCommandFixture(t)
	fan42 := seedUser(t, store, "fan42", roles.User)
	seedUser(t, store, "fan43", roles.User)
	channel := seedChannel(t, store, "general")

	result := commands.Execute(fan42, channel.ID, "/mute fan43 5 flooding")
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Permissions insuffisantes")

	// Aucun journal n'est écrit sur refus.
	logs, err := store.ListModerationLogs(channel.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestMuteCommandAsModerator(t *testing.T) {
	store, channels, commands := newCommandFixture(t)
	kisslove := seedUser(t, store, "kisslove", roles.Moderator)
	fan := seedUser(t, store, "fan43", roles.User)
	channel := seedChannel(t, store, "general")
	join(t, channels, channel.ID, fan.ID)

	before := time.Now()
	result := commands.Execute(kisslove, channel.ID, "/mute fan43 5 flooding")
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.True(t, result.BroadcastToChannel)
	assert.True(t, result.SystemMessage)
	assert.Equal(t, "🔇 fan43 a été rendu muet pour 5 minutes par kisslove. Raison: flooding", result.Message)

	member, err := store.GetMembership(fan.ID, channel.ID)
	require.NoError(t, err)
	assert.True(t, member.IsMuted)
	require.NotNil(t, member.MuteUntil)
	assert.WithinDuration(t, before.Add(5*time.Minute), *member.MuteUntil, 2*time.Second)

	logs, err := store.ListModerationLogs(channel.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 300, logs[0].DurationSeconds)
}

func TestMuteCommandDurationOptional(t *testing.T) {
	store, channels, commands := newCommandFixture(t)
	kisslove := seedUser(t, store, "kisslove", roles.Moderator)
	fan := seedUser(t, store, "fan43", roles.User)
	channel := seedChannel(t, store, "general")
	join(t, channels, channel.ID, fan.ID)

	// Pas de durée : 10 minutes et la suite est la raison.
	result := commands.Execute(kisslove, channel.ID, "/mute fan43 flood massif")
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "pour 10 minutes")
	assert.Contains(t, result.Message, "Raison: flood massif")
}

func TestBanCommand(t *testing.T) {
	store, channels, commands := newCommandFixture(t)
	ashley := seedUser(t, store, "ashley", roles.Admin)
	troll := seedUser(t, store, "troll123", roles.User)
	channel := seedChannel(t, store, "general")
	join(t, channels, channel.ID, troll.ID)

	result := commands.Execute(ashley, channel.ID, "/ban troll123 spam")
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Equal(t, "🔨 troll123 a été banni définitivement par ashley. Raison: spam", result.Message)

	t.Run("refusé pour un non-admin", func(t *testing.T) {
		kisslove := seedUser(t, store, "kisslove", roles.Moderator)
		result := commands.Execute(kisslove, channel.ID, "/ban fan")
		require.NotNil(t, result)
		assert.False(t, result.Success)
		assert.Equal(t, "❌ Seuls les administrateurs peuvent bannir des utilisateurs.", result.Message)
	})
}

func TestJoinCommand(t *testing.T) {
	store, channels, commands := newCommandFixture(t)
	require.NoError(t, channels.SeedDefaults())
	user := seedUser(t, store, "fan42", roles.User)
	general, err := channels.FindByName("#general")
	require.NoError(t, err)

	t.Run("usage sans argument", func(t *testing.T) {
		result := commands.Execute(user, general.ID, "/join")
		require.NotNil(t, result)
		assert.False(t, result.Success)
		assert.Equal(t, "❌ Usage: /join <#channel> [mot_de_passe]", result.Message)
	})

	t.Run("join avec ou sans préfixe", func(t *testing.T) {
		result := commands.Execute(user, general.ID, "/join musique")
		require.NotNil(t, result)
		assert.True(t, result.Success)
		assert.Equal(t, "✅ Vous avez rejoint #musique", result.Message)
		require.NotNil(t, result.JoinChannel)

		musique, err := channels.FindByName("#musique")
		require.NoError(t, err)
		assert.Equal(t, musique.ID, *result.JoinChannel)
	})

	t.Run("channel inexistant", func(t *testing.T) {
		result := commands.Execute(user, general.ID, "/join #inconnu")
		require.NotNil(t, result)
		assert.False(t, result.Success)
		assert.Equal(t, "❌ Channel '#inconnu' introuvable.", result.Message)
	})
}

func TestPartCommand(t *testing.T) {
	store, channels, commands := newCommandFixture(t)
	user := seedUser(t, store, "fan42", roles.User)
	channel := seedChannel(t, store, "general")
	join(t, channels, channel.ID, user.ID)

	result := commands.Execute(user, channel.ID, "/part")
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.True(t, result.LeftChannel)
	assert.Equal(t, "👋 fan42 a quitté le channel.", result.Message)
}

func TestLeaderboardCommand(t *testing.T) {
	store, _, commands := newCommandFixture(t)
	channel := seedChannel(t, store, "general")

	a := seedUser(t, store, "a", roles.User)
	a.Level, a.XP = 5, 900
	require.NoError(t, store.UpdateUser(a))
	b := seedUser(t, store, "b", roles.User)
	b.Level, b.XP = 7, 100
	require.NoError(t, store.UpdateUser(b))
	c := seedUser(t, store, "c", roles.User)
	c.Level, c.XP = 7, 500
	require.NoError(t, store.UpdateUser(c))
	banned := seedUser(t, store, "banni", roles.Banned)
	banned.Level = 99
	require.NoError(t, store.UpdateUser(banned))

	result := commands.Execute(a, channel.ID, "/leaderboard")
	require.NotNil(t, result)
	assert.True(t, result.Success)

	// Niveau décroissant puis XP décroissante, bannis exclus.
	assert.Contains(t, result.Message, "🏆 **Classement Ash-Radio**")
	assert.Contains(t, result.Message, "🥇 c - Niveau 7 (500 XP)")
	assert.Contains(t, result.Message, "🥈 b - Niveau 7 (100 XP)")
	assert.Contains(t, result.Message, "🥉 a - Niveau 5 (900 XP)")
	assert.NotContains(t, result.Message, "banni")
}

func TestStatsCommand(t *testing.T) {
	store, _, commands := newCommandFixture(t)
	user := seedUser(t, store, "fan42", roles.User)
	user.Level, user.XP = 2, 150
	require.NoError(t, store.UpdateUser(user))
	channel := seedChannel(t, store, "general")

	require.NoError(t, store.SaveMessage(&models.Message{
		ChannelID: channel.ID,
		UserID:    user.ID.String(),
		Username:  user.Username,
		Type:      models.MessageText,
		Content:   "salut",
	}))

	result := commands.Execute(user, channel.ID, "/stats")
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "📊 **Statistiques de fan42**")
	assert.Contains(t, result.Message, "Niveau: 2 (150 XP)")
	assert.Contains(t, result.Message, "Messages envoyés: 1")

	// /level est un alias.
	alias := commands.Execute(user, channel.ID, "/level")
	require.NotNil(t, alias)
	assert.Equal(t, result.Message, alias.Message)
}

func TestWhoCommand(t *testing.T) {
	store, channels, commands := newCommandFixture(t)
	ashley := seedUser(t, store, "ashley", roles.Admin)
	fan := seedUser(t, store, "fan42", roles.User)
	channel := seedChannel(t, store, "general")
	join(t, channels, channel.ID, ashley.ID)
	join(t, channels, channel.ID, fan.ID)

	require.NoError(t, channels.MuteMember(channel.ID, fan.ID, time.Now().Add(time.Hour)))

	result := commands.Execute(ashley, channel.ID, "/who")
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "📋 **#general** (2 membres):")
	assert.Contains(t, result.Message, "👑 ashley (niveau 1)")
	assert.Contains(t, result.Message, "👤 fan42 (niveau 1) 🔇")
}

func TestWhoisCommand(t *testing.T) {
	store, channels, commands, sessions := newCommandFixtureWithSessions(t)
	ashley := seedUser(t, store, "ashley", roles.Admin)
	fan := seedUser(t, store, "fan42", roles.User)
	channel := seedChannel(t, store, "general")
	join(t, channels, channel.ID, fan.ID)

	t.Run("cible connectée", func(t *testing.T) {
		sessions.channels[fan.ID] = channel.ID

		result := commands.Execute(ashley, channel.ID, "/whois fan42")
		require.NotNil(t, result)
		assert.True(t, result.Success)
		assert.Contains(t, result.Message, "🔍 **fan42**")
		assert.Contains(t, result.Message, "Channel actuel: #general")
	})

	t.Run("cible hors ligne", func(t *testing.T) {
		delete(sessions.channels, fan.ID)

		result := commands.Execute(ashley, channel.ID, "/whois fan42")
		require.NotNil(t, result)
		assert.Contains(t, result.Message, "Channel actuel: hors ligne")
	})

	t.Run("cible inconnue", func(t *testing.T) {
		result := commands.Execute(ashley, channel.ID, "/whois fantome")
		require.NotNil(t, result)
		assert.False(t, result.Success)
		assert.Equal(t, "❌ Utilisateur 'fantome' introuvable.", result.Message)
	})
}

func TestHelpCommandRoleScoped(t *testing.T) {
	store, _, commands := newCommandFixture(t)
	fan := seedUser(t, store, "fan42", roles.User)
	kisslove := seedUser(t, store, "kisslove", roles.Moderator)
	ashley := seedUser(t, store, "ashley", roles.Admin)
	channel := seedChannel(t, store, "general")

	userHelp := commands.Execute(fan, channel.ID, "/help")
	require.NotNil(t, userHelp)
	assert.Contains(t, userHelp.Message, "Commandes utilisateur")
	assert.NotContains(t, userHelp.Message, "Commandes modérateur")
	assert.NotContains(t, userHelp.Message, "Commandes administrateur")

	modHelp := commands.Execute(kisslove, channel.ID, "/help")
	require.NotNil(t, modHelp)
	assert.Contains(t, modHelp.Message, "Commandes modérateur")
	assert.NotContains(t, modHelp.Message, "Commandes administrateur")

	adminHelp := commands.Execute(ashley, channel.ID, "/help")
	require.NotNil(t, adminHelp)
	assert.Contains(t, adminHelp.Message, "Commandes administrateur")
}

func TestTimeAndUptimeCommands(t *testing.T) {
	store, _, commands := newCommandFixture(t)
	user := seedUser(t, store, "fan42", roles.User)
	channel := seedChannel(t, store, "general")

	timeResult := commands.Execute(user, channel.ID, "/time")
	require.NotNil(t, timeResult)
	assert.True(t, timeResult.Success)
	assert.Contains(t, timeResult.Message, "🕐 Il est actuellement ")

	uptimeResult := commands.Execute(user, channel.ID, "/uptime")
	require.NotNil(t, uptimeResult)
	assert.True(t, uptimeResult.Success)
	assert.Regexp(t, `^⏰ Serveur Ash-Radio en ligne depuis \d+h \d+m \d+s$`, uptimeResult.Message)
}

func TestCommandNameCaseInsensitive(t *testing.T) {
	store, _, commands := newCommandFixture(t)
	user := seedUser(t, store, "fan42", roles.User)
	channel := seedChannel(t, store, "general")

	result := commands.Execute(user, channel.ID, "/HELP")
	require.NotNil(t, result)
	assert.True(t, result.Success)
}
