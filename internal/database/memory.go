package database

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/internal/roles"
	"github.com/ashradio/chat-server/pkg/apperr"
)

// Memory est le store en mémoire : même contrat que Postgres,
// durée de vie limitée au processus. C'est lui que les tests utilisent.
type Memory struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]models.User
	channels    map[uuid.UUID]models.Channel
	memberships map[string]models.ChannelMember
	messages    map[uuid.UUID][]models.Message
	modLogs     []models.ModerationLog
}

func NewMemory() *Memory {
	return &Memory{
		users:       make(map[uuid.UUID]models.User),
		channels:    make(map[uuid.UUID]models.Channel),
		memberships: make(map[string]models.ChannelMember),
		messages:    make(map[uuid.UUID][]models.Message),
	}
}

func memberKey(userID, channelID uuid.UUID) string {
	return userID.String() + "|" + channelID.String()
}

// --- Utilisateurs ---

func (m *Memory) SaveUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Username, user.Username) || u.Email == user.Email {
			return apperr.AlreadyExists("utilisateur ou email déjà existant")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) GetUser(id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("utilisateur introuvable")
	}
	return &u, nil
}

func (m *Memory) FindUserByUsername(username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			user := u
			return &user, nil
		}
	}
	return nil, apperr.NotFound("utilisateur introuvable")
}

func (m *Memory) FindUserByLogin(login string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Username, login) || u.Email == login {
			user := u
			return &user, nil
		}
	}
	return nil, apperr.NotFound("utilisateur introuvable")
}

func (m *Memory) UpdateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return apperr.NotFound("utilisateur introuvable")
	}
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) UpdateLastSeen(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return apperr.NotFound("utilisateur introuvable")
	}
	u.LastSeenAt = time.Now()
	m.users[id] = u
	return nil
}

func (m *Memory) CountUserMessages(userID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, msgs := range m.messages {
		for _, msg := range msgs {
			if msg.UserID == userID.String() {
				count++
			}
		}
	}
	return count, nil
}

func (m *Memory) TopUsers(limit int) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		if roles.Parse(u.Role) != roles.Banned {
			users = append(users, u)
		}
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Level != users[j].Level {
			return users[i].Level > users[j].Level
		}
		return users[i].XP > users[j].XP
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// --- Channels ---

func (m *Memory) CreateChannel(channel *models.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.channels {
		if c.Name == channel.Name {
			return apperr.AlreadyExists("un channel porte déjà ce nom")
		}
	}
	if channel.ID == uuid.Nil {
		channel.ID = uuid.New()
	}
	if channel.CreatedAt.IsZero() {
		channel.CreatedAt = time.Now()
	}
	m.channels[channel.ID] = *channel
	return nil
}

func (m *Memory) GetChannel(id uuid.UUID) (*models.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.channels[id]
	if !ok {
		return nil, apperr.NotFound("channel introuvable")
	}
	return &c, nil
}

func (m *Memory) FindChannelByName(name string) (*models.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.channels {
		if c.Name == name {
			channel := c
			return &channel, nil
		}
	}
	return nil, apperr.NotFound("channel introuvable")
}

func (m *Memory) UpdateChannel(channel *models.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.channels[channel.ID]; !ok {
		return apperr.NotFound("channel introuvable")
	}
	m.channels[channel.ID] = *channel
	return nil
}

func (m *Memory) ListPublicChannels() ([]models.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var channels []models.Channel
	for _, c := range m.channels {
		if !c.IsPrivate && c.IsActive {
			channels = append(channels, c)
		}
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].Name < channels[j].Name })
	return channels, nil
}

func (m *Memory) CountMembers(channelID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, mem := range m.memberships {
		if mem.ChannelID == channelID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) CountChannels() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, c := range m.channels {
		if c.IsActive {
			count++
		}
	}
	return count, nil
}

// --- Adhésions ---

func (m *Memory) CreateMembership(member *models.ChannelMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memberKey(member.UserID, member.ChannelID)
	if _, ok := m.memberships[key]; ok {
		return apperr.AlreadyExists("utilisateur déjà membre du channel")
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	m.memberships[key] = *member
	return nil
}

func (m *Memory) GetMembership(userID, channelID uuid.UUID) (*models.ChannelMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mem, ok := m.memberships[memberKey(userID, channelID)]
	if !ok {
		return nil, apperr.NotFound("adhésion introuvable")
	}
	return &mem, nil
}

func (m *Memory) UpdateMembership(member *models.ChannelMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memberKey(member.UserID, member.ChannelID)
	if _, ok := m.memberships[key]; !ok {
		return apperr.NotFound("adhésion introuvable")
	}
	m.memberships[key] = *member
	return nil
}

func (m *Memory) DeleteMembership(userID, channelID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.memberships, memberKey(userID, channelID))
	return nil
}

func (m *Memory) ListMemberships(channelID uuid.UUID) ([]models.ChannelMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var members []models.ChannelMember
	for _, mem := range m.memberships {
		if mem.ChannelID == channelID {
			members = append(members, mem)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	return members, nil
}

// --- Messages ---

func (m *Memory) SaveMessage(message *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	m.messages[message.ChannelID] = append(m.messages[message.ChannelID], *message)
	return nil
}

func (m *Memory) GetChannelMessages(channelID uuid.UUID, limit int) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[channelID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *Memory) CountMessages() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, msgs := range m.messages {
		count += int64(len(msgs))
	}
	return count, nil
}

// --- Journal de modération ---

func (m *Memory) SaveModerationLog(entry *models.ModerationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.modLogs = append(m.modLogs, *entry)
	return nil
}

func (m *Memory) ListModerationLogs(channelID uuid.UUID, limit int) ([]models.ModerationLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []models.ModerationLog
	for i := len(m.modLogs) - 1; i >= 0 && len(entries) < limit; i-- {
		e := m.modLogs[i]
		if channelID == uuid.Nil || e.ChannelID == channelID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
