package cruces

import (
	"time"
)

// Grupo is a named role. Users belong to at most one grupo and permissions
// are granted to grupos, never to users directly.
type Grupo struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Menu is an addressable capability area ("cruces", "tickets", ...).
type Menu struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	Acciones  []Accion  `gorm:"foreignKey:MenuID" json:"acciones,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Accion is an action offered by a menu. Actions are catalog data only:
// grants are stored per menu.
type Accion struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	MenuID uint   `gorm:"not null;uniqueIndex:idx_accion_menu_name" json:"menuId"`
	Name   string `gorm:"not null;uniqueIndex:idx_accion_menu_name" json:"name"`
}

// Usuario is the subset of the user record the authorization core needs.
type Usuario struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"unique;not null" json:"username"`
	GrupoID   *uint     `gorm:"index" json:"grupoId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Permiso grants the members of a grupo access to a menu. The unique index
// on (grupo_id, menu_id) is what finally rejects duplicates.
type Permiso struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GrupoID   uint      `gorm:"not null;uniqueIndex:idx_permiso_grupo_menu" json:"grupoId"`
	MenuID    uint      `gorm:"not null;uniqueIndex:idx_permiso_grupo_menu;index" json:"menuId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tipo is a node of the incident-type category forest, stored as a nested
// set. Every descendant's (Left, Right) lies strictly inside its ancestors'.
type Tipo struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	ParentID  *uint     `gorm:"index" json:"parentId"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	Left      int       `gorm:"column:lft;not null;index" json:"left"`
	Right     int       `gorm:"column:rgt;not null;index" json:"right"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuditLog tracks permission and category mutations.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  string    `gorm:"index" json:"requestId"`
	ActorID    uint      `gorm:"index;not null" json:"actorId"`
	Action     string    `gorm:"not null" json:"action"`
	TargetType string    `gorm:"not null;index" json:"targetType"`
	TargetID   uint      `gorm:"index;not null" json:"targetId"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Grupo) TableName() string    { return "grupos" }
func (Menu) TableName() string     { return "menus" }
func (Accion) TableName() string   { return "acciones" }
func (Usuario) TableName() string  { return "usuarios" }
func (Permiso) TableName() string  { return "permisos" }
func (Tipo) TableName() string     { return "tipos" }
func (AuditLog) TableName() string { return "audit_logs" }
