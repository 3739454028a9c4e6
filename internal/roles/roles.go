package roles

import "strings"

// Role est un enum fermé. BANNED n'est jamais attribué par le roster,
// uniquement par la modération.
type Role string

const (
	Admin     Role = "admin"
	Moderator Role = "moderator"
	User      Role = "user"
	Banned    Role = "banned"
)

// Staff Ash-Radio : les rôles élevés sont fixés par ce roster,
// tout autre pseudo est un simple utilisateur.
var staff = map[string]Role{
	"ashley":  Admin,
	"elsa":    Admin,
	"zoe":     Admin,
	"chloe":   Admin,
	"ludomix": Admin,

	"dj fredj": Moderator,
	"kisslove": Moderator,
}

// Resolve retourne le rôle d'un pseudo (insensible à la casse).
func Resolve(username string) Role {
	if r, ok := staff[strings.ToLower(username)]; ok {
		return r
	}
	return User
}

// StaffRoster retourne une copie du roster pour la bannière de démarrage.
func StaffRoster() map[string]Role {
	out := make(map[string]Role, len(staff))
	for name, role := range staff {
		out[name] = role
	}
	return out
}

// Color retourne la couleur d'affichage associée au rôle.
// Les bannis n'ont pas de session, donc pas de couleur dédiée.
func Color(r Role) string {
	switch r {
	case Admin:
		return "#DC2626" // rouge
	case Moderator:
		return "#7C3AED" // violet
	default:
		return "#3B82F6" // bleu
	}
}

// Avatar dérive l'avatar par défaut du pseudo.
func Avatar(username string) string {
	for _, r := range username {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// Rank ordonne les rôles pour la liste des membres : admin d'abord.
func Rank(r Role) int {
	switch r {
	case Admin:
		return 0
	case Moderator:
		return 1
	case User:
		return 2
	default:
		return 3
	}
}

// Parse normalise une chaîne stockée en Role, User par défaut.
func Parse(s string) Role {
	switch Role(strings.ToLower(s)) {
	case Admin:
		return Admin
	case Moderator:
		return Moderator
	case Banned:
		return Banned
	default:
		return User
	}
}
