package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashradio/chat-server/internal/database"
	"github.com/ashradio/chat-server/internal/roles"
	"github.com/ashradio/chat-server/pkg/apperr"
)

func TestSeedDefaults(t *testing.T) {
	store := database.NewMemory()
	svc := NewChannelService(store, testLogger())

	require.NoError(t, svc.SeedDefaults())

	channels, err := store.ListPublicChannels()
	require.NoError(t, err)
	assert.Len(t, channels, len(DefaultChannels))

	general, err := store.FindChannelByName("#general")
	require.NoError(t, err)
	assert.True(t, general.IsActive)
	assert.Equal(t, "#3B82F6", general.Color)

	// Deuxième passage : aucun doublon.
	require.NoError(t, svc.SeedDefaults())
	channels, err = store.ListPublicChannels()
	require.NoError(t, err)
	assert.Len(t, channels, len(DefaultChannels))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "#musique", NormalizeName("musique"))
	assert.Equal(t, "#musique", NormalizeName("#musique"))
	assert.Equal(t, "#radio", NormalizeName("  radio "))
	assert.Equal(t, "", NormalizeName("  "))
}

func TestCreateChannel(t *testing.T) {
	store := database.NewMemory()
	svc := NewChannelService(store, testLogger())
	owner := seedUser(t, store, "fan42", roles.User)

	channel, err := svc.CreateChannel(CreateChannelSpec{Name: "jazz"}, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "#jazz", channel.Name)
	assert.Equal(t, owner.ID, channel.OwnerID)

	// Le créateur est enrôlé avec tous les droits.
	member, err := store.GetMembership(owner.ID, channel.ID)
	require.NoError(t, err)
	assert.True(t, member.CanWrite)
	assert.True(t, member.CanInvite)

	// Nom dupliqué, même après normalisation.
	_, err = svc.CreateChannel(CreateChannelSpec{Name: "#jazz"}, owner.ID)
	assert.True(t, apperr.Is(err, apperr.CodeAlreadyExists))
}

func TestJoinChannel(t *testing.T) {
	store := database.NewMemory()
	svc := NewChannelService(store, testLogger())

	t.Run("mot de passe incorrect", func(t *testing.T) {
		user := seedUser(t, store, "fan1", roles.User)
		channel := seedChannel(t, store, "prive1")
		channel.Password = "secret"
		require.NoError(t, store.UpdateChannel(channel))

		_, err := svc.JoinChannel(channel.ID, user.ID, "mauvais")
		assert.True(t, apperr.Is(err, apperr.CodePermissionDenied))

		_, err = svc.JoinChannel(channel.ID, user.ID, "secret")
		assert.NoError(t, err)
	})

	t.Run("channel plein malgré un mot de passe correct", func(t *testing.T) {
		a := seedUser(t, store, "fan2", roles.User)
		b := seedUser(t, store, "fan3", roles.User)
		c := seedUser(t, store, "fan4", roles.User)

		channel := seedChannel(t, store, "petit")
		channel.Password = "secret"
		channel.MaxMembers = 2
		require.NoError(t, store.UpdateChannel(channel))

		_, err := svc.JoinChannel(channel.ID, a.ID, "secret")
		require.NoError(t, err)
		_, err = svc.JoinChannel(channel.ID, b.ID, "secret")
		require.NoError(t, err)

		_, err = svc.JoinChannel(channel.ID, c.ID, "secret")
		assert.True(t, apperr.Is(err, apperr.CodeFailedPrecondition))
	})

	t.Run("double join est une erreur", func(t *testing.T) {
		user := seedUser(t, store, "fan5", roles.User)
		channel := seedChannel(t, store, "double")

		_, err := svc.JoinChannel(channel.ID, user.ID, "")
		require.NoError(t, err)
		_, err = svc.JoinChannel(channel.ID, user.ID, "")
		assert.True(t, apperr.Is(err, apperr.CodeAlreadyExists))
	})

	t.Run("channel inactif introuvable", func(t *testing.T) {
		user := seedUser(t, store, "fan6", roles.User)
		channel := seedChannel(t, store, "ferme")
		channel.IsActive = false
		require.NoError(t, store.UpdateChannel(channel))

		_, err := svc.JoinChannel(channel.ID, user.ID, "")
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})
}

func TestLeaveChannelIdempotent(t *testing.T) {
	store := database.NewMemory()
	svc := NewChannelService(store, testLogger())
	user := seedUser(t, store, "fan42", roles.User)
	channel := seedChannel(t, store, "general")
	join(t, svc, channel.ID, user.ID)

	require.NoError(t, svc.LeaveChannel(channel.ID, user.ID))
	// Quitter deux fois n'est pas une erreur.
	require.NoError(t, svc.LeaveChannel(channel.ID, user.ID))
}

func TestGetChannelMembersOrdering(t *testing.T) {
	store := database.NewMemory()
	svc := NewChannelService(store, testLogger())
	channel := seedChannel(t, store, "general")

	admin := seedUser(t, store, "ashley", roles.Admin)
	mod := seedUser(t, store, "kisslove", roles.Moderator)
	veteran := seedUser(t, store, "fan1", roles.User)
	veteran.Level = 12
	require.NoError(t, store.UpdateUser(veteran))
	rookie := seedUser(t, store, "fan2", roles.User)

	// Insertion volontairement dans le désordre.
	join(t, svc, channel.ID, rookie.ID)
	join(t, svc, channel.ID, veteran.ID)
	join(t, svc, channel.ID, mod.ID)
	join(t, svc, channel.ID, admin.ID)

	members, err := svc.GetChannelMembers(channel.ID)
	require.NoError(t, err)
	require.Len(t, members, 4)

	// Rang de rôle croissant, puis niveau décroissant.
	assert.Equal(t, "ashley", members[0].User.Username)
	assert.Equal(t, "kisslove", members[1].User.Username)
	assert.Equal(t, "fan1", members[2].User.Username)
	assert.Equal(t, "fan2", members[3].User.Username)
}

func TestMuteUnmuteMember(t *testing.T) {
	store := database.NewMemory()
	svc := NewChannelService(store, testLogger())
	user := seedUser(t, store, "fan42", roles.User)
	channel := seedChannel(t, store, "general")
	join(t, svc, channel.ID, user.ID)

	until := time.Now().Add(10 * time.Minute)
	require.NoError(t, svc.MuteMember(channel.ID, user.ID, until))

	member, err := store.GetMembership(user.ID, channel.ID)
	require.NoError(t, err)
	assert.True(t, member.Muted(time.Now()))

	require.NoError(t, svc.UnmuteMember(channel.ID, user.ID))
	member, err = store.GetMembership(user.ID, channel.ID)
	require.NoError(t, err)
	assert.False(t, member.Muted(time.Now()))
	assert.Nil(t, member.MuteUntil)
}

func TestInvite(t *testing.T) {
	store := database.NewMemory()
	svc := NewChannelService(store, testLogger())
	owner := seedUser(t, store, "fan1", roles.User)
	guest := seedUser(t, store, "fan2", roles.User)
	outsider := seedUser(t, store, "fan3", roles.User)

	channel, err := svc.CreateChannel(CreateChannelSpec{Name: "club"}, owner.ID)
	require.NoError(t, err)

	// Un simple membre sans canInvite ne peut pas inviter.
	join(t, svc, channel.ID, guest.ID)
	_, err = svc.Invite(channel.ID, guest.ID, "fan3")
	assert.True(t, apperr.Is(err, apperr.CodePermissionDenied))

	// Le propriétaire, si.
	invited, err := svc.Invite(channel.ID, owner.ID, "fan3")
	require.NoError(t, err)
	assert.Equal(t, outsider.ID, invited.ID)

	_, err = store.GetMembership(outsider.ID, channel.ID)
	assert.NoError(t, err)
}

func TestListPublicChannelsHidesPrivate(t *testing.T) {
	store := database.NewMemory()
	svc := NewChannelService(store, testLogger())

	seedChannel(t, store, "ouvert")
	hidden := seedChannel(t, store, "cache")
	hidden.IsPrivate = true
	require.NoError(t, store.UpdateChannel(hidden))

	infos, err := svc.ListPublicChannels()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "#ouvert", infos[0].Name)
	assert.Equal(t, int64(0), infos[0].MemberCount)
	assert.Empty(t, infos[0].Password)
	assert.NotEqual(t, uuid.Nil, infos[0].ID)
}
