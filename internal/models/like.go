package models

import (
	"fmt"
	"time"
)

// Like is a directional expression of interest from one group to another.
type Like struct {
	ID          string    `db:"id" json:"id"`
	FromGroupID string    `db:"from_group_id" json:"from_group_id"`
	ToGroupID   string    `db:"to_group_id" json:"to_group_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// LikeKey identifies the single like allowed per ordered pair.
func LikeKey(fromGroupID, toGroupID string) string {
	return fromGroupID + ">" + toGroupID
}

// Validate checks a decoded like.
func (l Like) Validate() error {
	switch {
	case l.ID == "":
		return fmt.Errorf("%w: like id is empty", ErrInvalidRecord)
	case l.FromGroupID == "" || l.ToGroupID == "":
		return fmt.Errorf("%w: like %s is missing a group", ErrInvalidRecord, l.ID)
	case l.FromGroupID == l.ToGroupID:
		return fmt.Errorf("%w: like %s points at its own group", ErrInvalidRecord, l.ID)
	}
	return nil
}
