package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"match-service/internal/models"
)

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroupForUser creates the group and links it to its admin atomically.
func (r *GroupRepo) CreateGroupForUser(ctx context.Context, group models.Group) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, group.AdminUserID); err != nil {
		return models.Group{}, fmt.Errorf("ensure admin user: %w", err)
	}

	var current sql.NullString
	if err = tx.GetContext(ctx, &current, `SELECT group_id FROM users WHERE id=$1 FOR UPDATE`, group.AdminUserID); err != nil {
		return models.Group{}, fmt.Errorf("lock admin user: %w", err)
	}
	if current.Valid && current.String != "" {
		err = ErrUserHasGroup
		return models.Group{}, err
	}

	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	var created models.Group
	if err = tx.QueryRowxContext(ctx, `INSERT INTO groups (id, name, bio, photo_url, admin_user_id) VALUES ($1, $2, $3, $4, $5)
        RETURNING id, name, bio, photo_url, admin_user_id, created_at`,
		group.ID, group.Name, group.Bio, group.PhotoURL, group.AdminUserID).StructScan(&created); err != nil {
		return models.Group{}, fmt.Errorf("insert group: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE users SET group_id=$1 WHERE id=$2`, created.ID, group.AdminUserID); err != nil {
		return models.Group{}, fmt.Errorf("assign group: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return created, nil
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT id, name, bio, photo_url, admin_user_id, created_at FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// ListGroups returns all groups ordered by id.
func (r *GroupRepo) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups, `SELECT id, name, bio, photo_url, admin_user_id, created_at FROM groups ORDER BY id ASC`)
	return groups, err
}
