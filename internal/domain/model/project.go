package model

import (
	"strings"
	"time"

	"edu-tutor/internal/domain"
)

// Project groups chat sessions of one user. Deleting it deletes its sessions.
type Project struct {
	ID          ID
	UserID      ID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewProject(userID ID, name, description string) (*Project, error) {
	name = strings.TrimSpace(name)
	if userID.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	if name == "" {
		return nil, domain.NewError(domain.ErrValidation, "Project name is required")
	}
	now := time.Now().UTC()
	return &Project{
		ID:          NewID(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *Project) OwnedBy(userID ID) bool { return p != nil && p.UserID == userID }

// Rename replaces name and description and bumps UpdatedAt.
func (p *Project) Rename(name, description string, at time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewError(domain.ErrValidation, "Project name is required")
	}
	p.Name = name
	p.Description = strings.TrimSpace(description)
	p.UpdatedAt = at
	return nil
}
