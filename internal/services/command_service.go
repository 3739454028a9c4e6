package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashradio/chat-server/internal/models"
	"github.com/ashradio/chat-server/internal/roles"
)

// CommandPrefix marque une entrée chat comme commande.
const CommandPrefix = "/"

// LeaderboardSize : taille du classement retourné par /top.
const LeaderboardSize = 10

// CommandContext rassemble tout ce qu'un handler doit savoir
// sur l'émetteur et le channel courant.
type CommandContext struct {
	UserID    uuid.UUID
	Username  string
	ChannelID uuid.UUID
	Role      roles.Role
	Message   string
	Args      []string
}

// CommandResult dit à la couche transport quoi faire de la réponse :
// réponse privée par défaut, diffusion au channel si BroadcastToChannel,
// changement de channel si JoinChannel est renseigné.
type CommandResult struct {
	Success            bool       `json:"success"`
	Message            string     `json:"message"`
	SystemMessage      bool       `json:"systemMessage,omitempty"`
	BroadcastToChannel bool       `json:"broadcastToChannel,omitempty"`
	JoinChannel        *uuid.UUID `json:"-"`
	LeftChannel        bool       `json:"-"`
}

type commandHandler func(ctx *CommandContext) *CommandResult

// CommandService interprète les commandes slash. Dispatch sans état :
// toute la mécanique vit dans les services injectés.
type CommandService struct {
	store      Store
	channels   *ChannelService
	moderation *ModerationService
	xp         *XPService
	sessions   Sessions
	commands   map[string]commandHandler
	startedAt  time.Time
	logger     *zap.Logger
}

func NewCommandService(store Store, channels *ChannelService, moderation *ModerationService, xp *XPService, sessions Sessions, logger *zap.Logger) *CommandService {
	s := &CommandService{
		store:      store,
		channels:   channels,
		moderation: moderation,
		xp:         xp,
		sessions:   sessions,
		startedAt:  time.Now(),
		logger:     logger,
	}

	s.commands = map[string]commandHandler{
		// Modération
		"ban":    s.banCommand,
		"kick":   s.kickCommand,
		"mute":   s.muteCommand,
		"unmute": s.unmuteCommand,
		"warn":   s.warnCommand,

		// Channels
		"join":   s.joinCommand,
		"part":   s.partCommand,
		"leave":  s.partCommand,
		"topic":  s.topicCommand,
		"invite": s.inviteCommand,

		// Rôles
		"promote": s.promoteCommand,
		"demote":  s.demoteCommand,

		// Information
		"who":         s.whoCommand,
		"whois":       s.whoisCommand,
		"stats":       s.statsCommand,
		"level":       s.statsCommand,
		"leaderboard": s.leaderboardCommand,
		"top":         s.leaderboardCommand,

		// Utilitaires
		"help":   s.helpCommand,
		"time":   s.timeCommand,
		"uptime": s.uptimeCommand,
	}

	logger.Info("commandes IRC chargées", zap.Int("count", len(s.commands)))
	return s
}

// Execute interprète un message. Retourne nil si le message n'est pas
// une commande : il doit alors suivre le circuit normal. Aucune erreur
// ne franchit cette frontière, tout devient un CommandResult.
func (s *CommandService) Execute(user *models.User, channelID uuid.UUID, message string) (result *CommandResult) {
	if !strings.HasPrefix(message, CommandPrefix) {
		return nil
	}

	parts := strings.Fields(strings.TrimPrefix(message, CommandPrefix))
	if len(parts) == 0 {
		return &CommandResult{
			Success: false,
			Message: "❌ Commande vide. Tapez /help pour voir les commandes disponibles.",
		}
	}

	name := strings.ToLower(parts[0])
	handler, ok := s.commands[name]
	if !ok {
		return &CommandResult{
			Success: false,
			Message: fmt.Sprintf("❌ Commande '/%s' inconnue. Tapez /help pour voir les commandes disponibles.", name),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panique dans un handler de commande",
				zap.String("command", name), zap.Any("panic", r))
			result = &CommandResult{
				Success: false,
				Message: "❌ Erreur lors de l'exécution de la commande.",
			}
		}
	}()

	ctx := &CommandContext{
		UserID:    user.ID,
		Username:  user.Username,
		ChannelID: channelID,
		Role:      roles.Parse(user.Role),
		Message:   message,
		Args:      parts[1:],
	}
	return handler(ctx)
}

// fail convertit une erreur de service en refus lisible par l'émetteur.
func fail(err error) *CommandResult {
	return &CommandResult{Success: false, Message: "❌ " + err.Error()}
}

func usage(text string) *CommandResult {
	return &CommandResult{Success: false, Message: "❌ Usage: " + text}
}

func broadcast(text string) *CommandResult {
	return &CommandResult{
		Success:            true,
		Message:            text,
		SystemMessage:      true,
		BroadcastToChannel: true,
	}
}

func (s *CommandService) actor(ctx *CommandContext) (*models.User, error) {
	return s.store.GetUser(ctx.UserID)
}

// ===== Modération =====

func (s *CommandService) banCommand(ctx *CommandContext) *CommandResult {
	if ctx.Role != roles.Admin {
		return &CommandResult{Success: false, Message: "❌ Seuls les administrateurs peuvent bannir des utilisateurs."}
	}
	if len(ctx.Args) < 1 {
		return usage("/ban <utilisateur> [raison]")
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return fail(err)
	}
	msg, err := s.moderation.Ban(actor, ctx.Args[0], strings.Join(ctx.Args[1:], " "), ctx.ChannelID)
	if err != nil {
		return fail(err)
	}
	return broadcast(msg)
}

func (s *CommandService) kickCommand(ctx *CommandContext) *CommandResult {
	if ctx.Role == roles.User || ctx.Role == roles.Banned {
		return &CommandResult{Success: false, Message: "❌ Permissions insuffisantes pour expulser des utilisateurs."}
	}
	if len(ctx.Args) < 1 {
		return usage("/kick <utilisateur> [raison]")
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return fail(err)
	}
	msg, err := s.moderation.Kick(actor, ctx.Args[0], strings.Join(ctx.Args[1:], " "), ctx.ChannelID)
	if err != nil {
		return fail(err)
	}
	return broadcast(msg)
}

func (s *CommandService) muteCommand(ctx *CommandContext) *CommandResult {
	if ctx.Role == roles.User || ctx.Role == roles.Banned {
		return &CommandResult{Success: false, Message: "❌ Permissions insuffisantes pour rendre muet des utilisateurs."}
	}
	if len(ctx.Args) < 1 {
		return usage("/mute <utilisateur> [durée_en_minutes] [raison]")
	}

	// La durée est optionnelle : si le deuxième argument n'est pas un
	// nombre, il fait partie de la raison.
	duration := DefaultMuteMinutes
	reasonArgs := ctx.Args[1:]
	if len(ctx.Args) > 1 {
		if n, err := strconv.Atoi(ctx.Args[1]); err == nil && n > 0 {
			duration = n
			reasonArgs = ctx.Args[2:]
		}
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return fail(err)
	}
	msg, err := s.moderation.Mute(actor, ctx.Args[0], duration, strings.Join(reasonArgs, " "), ctx.ChannelID)
	if err != nil {
		return fail(err)
	}
	return broadcast(msg)
}

func (s *CommandService) unmuteCommand(ctx *CommandContext) *CommandResult {
	if ctx.Role == roles.User || ctx.Role == roles.Banned {
		return &CommandResult{Success: false, Message: "❌ Permissions insuffisantes."}
	}
	if len(ctx.Args) < 1 {
		return usage("/unmute <utilisateur>")
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return fail(err)
	}
	msg, err := s.moderation.Unmute(actor, ctx.Args[0], ctx.ChannelID)
	if err != nil {
		return fail(err)
	}
	return broadcast(msg)
}

func (s *CommandService) warnCommand(ctx *CommandContext) *CommandResult {
	if ctx.Role == roles.User || ctx.Role == roles.Banned {
		return &CommandResult{Success: false, Message: "❌ Permissions insuffisantes."}
	}
	if len(ctx.Args) < 1 {
		return usage("/warn <utilisateur> [raison]")
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return fail(err)
	}
	msg, err := s.moderation.Warn(actor, ctx.Args[0], strings.Join(ctx.Args[1:], " "), ctx.ChannelID)
	if err != nil {
		return fail(err)
	}
	return broadcast(msg)
}

// ===== Channels =====

func (s *CommandService) joinCommand(ctx *CommandContext) *CommandResult {
	if len(ctx.Args) < 1 {
		return usage("/join <#channel> [mot_de_passe]")
	}

	name := NormalizeName(ctx.Args[0])
	password := ""
	if len(ctx.Args) > 1 {
		password = ctx.Args[1]
	}

	channel, err := s.channels.FindByName(name)
	if err != nil {
		return &CommandResult{Success: false, Message: fmt.Sprintf("❌ Channel '%s' introuvable.", name)}
	}

	if _, err := s.channels.JoinChannel(channel.ID, ctx.UserID, password); err != nil {
		return &CommandResult{Success: false, Message: fmt.Sprintf("❌ Impossible de rejoindre %s: %s", name, err.Error())}
	}

	id := channel.ID
	return &CommandResult{
		Success:     true,
		Message:     fmt.Sprintf("✅ Vous avez rejoint %s", name),
		JoinChannel: &id,
	}
}

func (s *CommandService) partCommand(ctx *CommandContext) *CommandResult {
	if err := s.channels.LeaveChannel(ctx.ChannelID, ctx.UserID); err != nil {
		return fail(err)
	}

	result := broadcast(fmt.Sprintf("👋 %s a quitté le channel.", ctx.Username))
	result.LeftChannel = true
	return result
}

func (s *CommandService) topicCommand(ctx *CommandContext) *CommandResult {
	channel, err := s.channels.GetChannel(ctx.ChannelID)
	if err != nil {
		return fail(err)
	}

	// Sans argument, /topic affiche le sujet courant.
	if len(ctx.Args) == 0 {
		if channel.Topic == "" {
			return &CommandResult{Success: true, Message: fmt.Sprintf("📌 %s n'a pas de sujet.", channel.Name)}
		}
		return &CommandResult{Success: true, Message: fmt.Sprintf("📌 Sujet de %s: %s", channel.Name, channel.Topic)}
	}

	if ctx.Role != roles.Admin && ctx.Role != roles.Moderator {
		return &CommandResult{Success: false, Message: "❌ Permissions insuffisantes pour changer le sujet."}
	}

	topic := strings.Join(ctx.Args, " ")
	if err := s.channels.SetTopic(ctx.ChannelID, topic); err != nil {
		return fail(err)
	}
	return broadcast(fmt.Sprintf("📌 %s a changé le sujet de %s: %s", ctx.Username, channel.Name, topic))
}

func (s *CommandService) inviteCommand(ctx *CommandContext) *CommandResult {
	if len(ctx.Args) < 1 {
		return usage("/invite <utilisateur>")
	}

	channel, err := s.channels.GetChannel(ctx.ChannelID)
	if err != nil {
		return fail(err)
	}

	receiver, err := s.channels.Invite(ctx.ChannelID, ctx.UserID, ctx.Args[0])
	if err != nil {
		return fail(err)
	}
	return broadcast(fmt.Sprintf("✉️ %s a été invité dans %s par %s.", receiver.Username, channel.Name, ctx.Username))
}

// ===== Rôles =====

func (s *CommandService) promoteCommand(ctx *CommandContext) *CommandResult {
	if ctx.Role != roles.Admin {
		return &CommandResult{Success: false, Message: "❌ Seuls les administrateurs peuvent promouvoir des utilisateurs."}
	}
	if len(ctx.Args) < 1 {
		return usage("/promote <utilisateur>")
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return fail(err)
	}
	msg, err := s.moderation.Promote(actor, ctx.Args[0], ctx.ChannelID)
	if err != nil {
		return fail(err)
	}
	return broadcast(msg)
}

func (s *CommandService) demoteCommand(ctx *CommandContext) *CommandResult {
	if ctx.Role != roles.Admin {
		return &CommandResult{Success: false, Message: "❌ Seuls les administrateurs peuvent rétrograder des utilisateurs."}
	}
	if len(ctx.Args) < 1 {
		return usage("/demote <utilisateur>")
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return fail(err)
	}
	msg, err := s.moderation.Demote(actor, ctx.Args[0], ctx.ChannelID)
	if err != nil {
		return fail(err)
	}
	return broadcast(msg)
}

// ===== Information =====

func roleGlyph(role roles.Role) string {
	switch role {
	case roles.Admin:
		return "👑"
	case roles.Moderator:
		return "🛡️"
	default:
		return "👤"
	}
}

func (s *CommandService) whoCommand(ctx *CommandContext) *CommandResult {
	channel, err := s.channels.GetChannel(ctx.ChannelID)
	if err != nil {
		return fail(err)
	}
	members, err := s.channels.GetChannelMembers(ctx.ChannelID)
	if err != nil {
		return fail(err)
	}

	now := time.Now()
	lines := make([]string, 0, len(members))
	for _, m := range members {
		status := ""
		if m.Membership.Muted(now) {
			status = " 🔇"
		}
		lines = append(lines, fmt.Sprintf("%s %s (niveau %d)%s",
			roleGlyph(roles.Parse(m.User.Role)), m.User.Username, m.User.Level, status))
	}

	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("📋 **%s** (%d membres):\n%s",
			channel.Name, len(members), strings.Join(lines, "\n")),
	}
}

func (s *CommandService) whoisCommand(ctx *CommandContext) *CommandResult {
	if len(ctx.Args) < 1 {
		return usage("/whois <utilisateur>")
	}

	target, err := s.store.FindUserByUsername(ctx.Args[0])
	if err != nil {
		return &CommandResult{Success: false, Message: fmt.Sprintf("❌ Utilisateur '%s' introuvable.", ctx.Args[0])}
	}

	location := "hors ligne"
	if channelID, online := s.sessions.CurrentChannel(target.ID); online {
		if channel, err := s.store.GetChannel(channelID); err == nil {
			location = channel.Name
		}
	}

	role := roles.Parse(target.Role)
	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("🔍 **%s**\nRôle: %s %s\nNiveau: %d (%d XP)\nChannel actuel: %s\nMembre depuis: %s",
			target.Username, roleGlyph(role), role, target.Level, target.XP,
			location, frenchDate(target.CreatedAt)),
	}
}

func (s *CommandService) statsCommand(ctx *CommandContext) *CommandResult {
	user, err := s.store.GetUser(ctx.UserID)
	if err != nil {
		return &CommandResult{Success: false, Message: "❌ Utilisateur introuvable."}
	}
	messageCount, err := s.store.CountUserMessages(ctx.UserID)
	if err != nil {
		return fail(err)
	}

	info := GetLevelInfo(user.XP)
	needed := info.XPForNext - info.XPForCurrent

	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf(
			"📊 **Statistiques de %s**\n"+
				"Niveau: %d (%d XP)\n"+
				"Progrès: %d/%d XP vers le niveau %d\n"+
				"Messages envoyés: %d\n"+
				"Membre depuis: %s",
			user.Username, user.Level, user.XP,
			info.ProgressToNext, needed, info.CurrentLevel+1,
			messageCount, frenchDate(user.CreatedAt)),
	}
}

func (s *CommandService) leaderboardCommand(ctx *CommandContext) *CommandResult {
	top, err := s.xp.Leaderboard(LeaderboardSize)
	if err != nil {
		return fail(err)
	}

	lines := make([]string, 0, len(top))
	for i, user := range top {
		medal := fmt.Sprintf("%d.", i+1)
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}
		glyph := ""
		switch roles.Parse(user.Role) {
		case roles.Admin:
			glyph = " 👑"
		case roles.Moderator:
			glyph = " 🛡️"
		}
		lines = append(lines, fmt.Sprintf("%s %s%s - Niveau %d (%d XP)",
			medal, user.Username, glyph, user.Level, user.XP))
	}

	return &CommandResult{
		Success: true,
		Message: "🏆 **Classement Ash-Radio**\n" + strings.Join(lines, "\n"),
	}
}

// ===== Utilitaires =====

func (s *CommandService) helpCommand(ctx *CommandContext) *CommandResult {
	userCommands := []string{
		"/help - Affiche cette aide",
		"/who - Liste les membres du channel",
		"/whois <user> - Informations sur un utilisateur",
		"/stats - Vos statistiques",
		"/level - Votre niveau actuel",
		"/top - Classement des utilisateurs",
		"/join <#channel> - Rejoindre un channel",
		"/part - Quitter le channel actuel",
		"/topic - Afficher le sujet du channel",
		"/time - Heure du serveur",
		"/uptime - Temps en ligne du serveur",
	}
	modCommands := []string{
		"/warn <user> [raison] - Avertir un utilisateur",
		"/mute <user> [minutes] [raison] - Rendre muet",
		"/unmute <user> - Lever le mute",
		"/kick <user> [raison] - Expulser du channel",
		"/topic <sujet> - Changer le sujet du channel",
	}
	adminCommands := []string{
		"/ban <user> [raison] - Bannir définitivement",
		"/promote <user> - Promouvoir modérateur",
		"/demote <user> - Rétrograder utilisateur",
	}

	help := "📖 **Commandes Ash-Radio**\n\n**Commandes utilisateur:**\n" + strings.Join(userCommands, "\n")
	if ctx.Role == roles.Moderator || ctx.Role == roles.Admin {
		help += "\n\n**Commandes modérateur:**\n" + strings.Join(modCommands, "\n")
	}
	if ctx.Role == roles.Admin {
		help += "\n\n**Commandes administrateur:**\n" + strings.Join(adminCommands, "\n")
	}

	return &CommandResult{Success: true, Message: help}
}

var frenchDays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var frenchMonths = [...]string{"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre"}

func frenchDate(t time.Time) string {
	return fmt.Sprintf("%02d/%02d/%d", t.Day(), int(t.Month()), t.Year())
}

func frenchDateTime(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d à %02d:%02d:%02d",
		frenchDays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1], t.Year(),
		t.Hour(), t.Minute(), t.Second())
}

func (s *CommandService) timeCommand(ctx *CommandContext) *CommandResult {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		loc = time.UTC
	}
	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("🕐 Il est actuellement %s", frenchDateTime(time.Now().In(loc))),
	}
}

func (s *CommandService) uptimeCommand(ctx *CommandContext) *CommandResult {
	uptime := time.Since(s.startedAt)
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60
	return &CommandResult{
		Success: true,
		Message: fmt.Sprintf("⏰ Serveur Ash-Radio en ligne depuis %dh %dm %ds", hours, minutes, seconds),
	}
}
