package models

import (
	"strings"
	"time"
)

type User struct {
	ID        int64     `yaml:"id" json:"id"`
	Name      string    `yaml:"name" json:"name"`
	Email     string    `yaml:"email" json:"email"`
	CreatedAt time.Time `yaml:"-" json:"createdAt"`
	UpdatedAt time.Time `yaml:"-" json:"updatedAt"`
}

type UserPatch struct {
	Name  *string
	Email *string
}

func (p UserPatch) Apply(u *User) {
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		u.Name = *p.Name
	}
	if p.Email != nil && strings.TrimSpace(*p.Email) != "" {
		u.Email = *p.Email
	}
}
