package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRecord marks a stored record that does not decode into a valid model.
var ErrInvalidRecord = errors.New("invalid record")

// DefaultGroupPhotoURL is used when a group is created without a photo.
const DefaultGroupPhotoURL = "https://via.placeholder.com/400x300?text=Group+Photo"

// Group is the swiping unit: a profile administered by a single user.
type Group struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Bio         string    `db:"bio" json:"bio"`
	PhotoURL    string    `db:"photo_url" json:"photo_url"`
	AdminUserID string    `db:"admin_user_id" json:"admin_user_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Validate checks the fields every stored group must carry.
func (g Group) Validate() error {
	switch {
	case strings.TrimSpace(g.ID) == "":
		return fmt.Errorf("%w: group id is empty", ErrInvalidRecord)
	case strings.TrimSpace(g.Name) == "":
		return fmt.Errorf("%w: group %s has no name", ErrInvalidRecord, g.ID)
	case strings.TrimSpace(g.AdminUserID) == "":
		return fmt.Errorf("%w: group %s has no admin", ErrInvalidRecord, g.ID)
	}
	return nil
}

// User is the local view of an authenticated account and the group it administers.
type User struct {
	ID        string    `db:"id" json:"id"`
	GroupID   *string   `db:"group_id" json:"group_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HasGroup reports whether the user already owns a group.
func (u User) HasGroup() bool {
	return u.GroupID != nil && *u.GroupID != ""
}
