package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"match-service/internal/models"
)

// LikeRepo is a sqlx implementation of LikeRepository.
type LikeRepo struct {
	db *sqlx.DB
}

// NewLikeRepo constructs a LikeRepo.
func NewLikeRepo(db *sqlx.DB) *LikeRepo {
	return &LikeRepo{db: db}
}

// CreateLike inserts the like unless the ordered pair already has one, in which case
// the stored like is returned unchanged.
func (r *LikeRepo) CreateLike(ctx context.Context, fromGroupID, toGroupID string) (models.Like, bool, error) {
	if fromGroupID == toGroupID {
		return models.Like{}, false, ErrSelfLike
	}

	var like models.Like
	err := r.db.QueryRowxContext(ctx, `INSERT INTO likes (id, from_group_id, to_group_id) VALUES ($1, $2, $3)
        ON CONFLICT (from_group_id, to_group_id) DO NOTHING
        RETURNING id, from_group_id, to_group_id, created_at`, uuid.NewString(), fromGroupID, toGroupID).StructScan(&like)
	switch {
	case err == nil:
		return like, true, nil
	case isForeignKeyViolation(err):
		return models.Like{}, false, ErrGroupNotFound
	case !errors.Is(err, sql.ErrNoRows):
		return models.Like{}, false, err
	}

	err = r.db.GetContext(ctx, &like, `SELECT id, from_group_id, to_group_id, created_at FROM likes WHERE from_group_id=$1 AND to_group_id=$2`, fromGroupID, toGroupID)
	return like, false, err
}

// HasLike checks whether fromGroupID already liked toGroupID.
func (r *LikeRepo) HasLike(ctx context.Context, fromGroupID, toGroupID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM likes WHERE from_group_id=$1 AND to_group_id=$2)`, fromGroupID, toGroupID)
	return exists, err
}

// ListLikedGroupIDs returns every group liked by fromGroupID.
func (r *LikeRepo) ListLikedGroupIDs(ctx context.Context, fromGroupID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `SELECT to_group_id FROM likes WHERE from_group_id=$1`, fromGroupID)
	return ids, err
}
