package models

import (
	"strings"
	"time"
)

type Item struct {
	ID          int64     `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Available   bool      `yaml:"available" json:"available"`
	OwnerID     int64     `yaml:"owner_id" json:"ownerId"`
	RequestID   *int64    `yaml:"request_id" json:"requestId,omitempty"`
	CreatedAt   time.Time `yaml:"-" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"-" json:"updatedAt"`
}

// ItemPatch carries the owner-editable fields. Nil fields are left unchanged.
type ItemPatch struct {
	Name        *string
	Description *string
	Available   *bool
}

func (p ItemPatch) Apply(item *Item) {
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		item.Name = *p.Name
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) != "" {
		item.Description = *p.Description
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
}

// MatchesText reports a case-insensitive substring hit on name or description.
func (i *Item) MatchesText(text string) bool {
	needle := strings.ToLower(text)
	return strings.Contains(strings.ToLower(i.Name), needle) ||
		strings.Contains(strings.ToLower(i.Description), needle)
}
