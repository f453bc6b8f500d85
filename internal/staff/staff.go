package staff

import (
	"strings"
	"time"
)

// Role is the closed set of staff roles. The stored value is the
// canonical Portuguese label; ParseRole also accepts the legacy
// upper-case aliases that older rows and clients still send.
type Role string

const (
	RoleAdmin    Role = "Administrador"
	RoleOperator Role = "Operador"
	RoleViewer   Role = "Visualizador"
)

func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMINISTRADOR", "ADMIN":
		return RoleAdmin, true
	case "OPERADOR", "OPERATOR":
		return RoleOperator, true
	case "VISUALIZADOR", "VIEWER":
		return RoleViewer, true
	}
	return "", false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

type User struct {
	ID          int64      `json:"id"`
	Login       string     `json:"login"`
	Nome        string     `json:"nome"`
	Email       *string    `json:"email"`
	Tipo        Role       `json:"tipo"`
	Ativo       bool       `json:"ativo"`
	DataCriacao time.Time  `json:"data_criacao"`
	UltimoLogin *time.Time `json:"ultimo_login"`
}
