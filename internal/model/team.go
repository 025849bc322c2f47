package model

import "time"

// TeamRole is a user's role within a team.
type TeamRole string

const (
	TeamRoleScrumMaster  TeamRole = "SCRUM_MASTER"
	TeamRoleProductOwner TeamRole = "PRODUCT_OWNER"
	TeamRoleMember       TeamRole = "MEMBER"
)

// Team groups users working together; membership and per-team roles live in
// TeamUser rows.
type Team struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	TeamUsers []TeamUser `gorm:"foreignKey:TeamID" json:"teamUsers"`
}

// TeamUser links a user to a team with a team-scoped role.
type TeamUser struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	TeamID   uint     `gorm:"uniqueIndex:idx_team_user;not null" json:"teamId"`
	UserID   uint     `gorm:"uniqueIndex:idx_team_user;not null" json:"userId"`
	TeamRole TeamRole `gorm:"not null;default:MEMBER" json:"teamRole"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}
