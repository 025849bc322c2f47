package service

import "github.com/scrumtogether/scrumtogether-api/internal/model"

// UserUpdate is the payload for updating an account. Version carries the
// optimistic-lock token the client read; Role and VerifiedEmail are pointers
// so "absent" and "unchanged" can be told apart.
type UserUpdate struct {
	ID            uint        `json:"id"`
	FirstName     string      `json:"firstName" validate:"required,max=50"`
	LastName      string      `json:"lastName" validate:"required,max=50"`
	Email         string      `json:"email" validate:"required,email,max=100"`
	Role          *model.Role `json:"role" validate:"omitempty,oneof=ADMIN DEFAULT"`
	VerifiedEmail *bool       `json:"verifiedEmail"`
	Version       int64       `json:"version"`
}

// UserPage is one page of accounts.
type UserPage struct {
	Users      []model.User `json:"users"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalItems int64        `json:"totalItems"`
}

// TeamMemberInput names one member and their team-scoped role.
type TeamMemberInput struct {
	UserID   uint           `json:"userId" validate:"required"`
	TeamRole model.TeamRole `json:"teamRole" validate:"required,oneof=SCRUM_MASTER PRODUCT_OWNER MEMBER"`
}

// TeamCreate is the payload for creating a team.
type TeamCreate struct {
	Name        string            `json:"name" validate:"required,max=100"`
	Description string            `json:"description" validate:"max=500"`
	Email       string            `json:"email" validate:"omitempty,email"`
	Members     []TeamMemberInput `json:"members" validate:"dive"`
}

// TeamUpdate is the payload for updating a team. Members, when present,
// replaces the full membership list.
type TeamUpdate struct {
	Name        string             `json:"name" validate:"required,max=100"`
	Description string             `json:"description" validate:"max=500"`
	Email       string             `json:"email" validate:"omitempty,email"`
	Members     *[]TeamMemberInput `json:"members" validate:"omitempty,dive"`
}

// TeamPage is one page of teams.
type TeamPage struct {
	Teams      []model.Team `json:"teams"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalItems int64        `json:"totalItems"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps paging parameters to safe bounds.
func normalizePage(page, pageSize int) (int, int) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
