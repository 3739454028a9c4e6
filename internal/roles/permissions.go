package roles

// Action de modération soumise à la matrice de permissions.
type Action string

const (
	ActionWarn    Action = "warn"
	ActionKick    Action = "kick"
	ActionMute    Action = "mute"
	ActionUnmute  Action = "unmute"
	ActionBan     Action = "ban"
	ActionPromote Action = "promote"
	ActionDemote  Action = "demote"
)

// adminOnly : actions réservées aux administrateurs quel que soit le rôle visé.
var adminOnly = map[Action]bool{
	ActionBan:     true,
	ActionPromote: true,
	ActionDemote:  true,
}

// moderatorActions : ce qu'un modérateur peut faire sur un simple utilisateur.
var moderatorActions = map[Action]bool{
	ActionWarn:   true,
	ActionKick:   true,
	ActionMute:   true,
	ActionUnmute: true,
}

// Allows applique la matrice de permissions complète.
// Règle uniforme : on ne vise jamais un rôle égal ou supérieur au sien,
// y compris entre admins.
func Allows(actor, target Role, action Action) bool {
	if actor == User || actor == Banned {
		return false
	}
	if Rank(target) <= Rank(actor) {
		return false
	}
	if adminOnly[action] {
		return actor == Admin
	}
	switch actor {
	case Admin:
		return true
	case Moderator:
		return target == User && moderatorActions[action]
	}
	return false
}
