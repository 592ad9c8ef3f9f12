package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"match-service/internal/models"
)

// MatchRepo is a sqlx implementation of MatchRepository.
type MatchRepo struct {
	db *sqlx.DB
}

// NewMatchRepo constructs a MatchRepo.
func NewMatchRepo(db *sqlx.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// CreateMatchIfMutual checks both likes and inserts the match inside one transaction
// serialized on the pair key. The unique pair_key column makes a second insert a no-op.
func (r *MatchRepo) CreateMatchIfMutual(ctx context.Context, groupA, groupB string) (*models.Match, bool, error) {
	if groupA == groupB {
		return nil, false, ErrSelfLike
	}
	candidate := models.NewMatch(uuid.NewString(), groupA, groupB, time.Time{})

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, candidate.PairKey); err != nil {
		return nil, false, err
	}

	var mutual bool
	if err = tx.GetContext(ctx, &mutual, `SELECT
            EXISTS(SELECT 1 FROM likes WHERE from_group_id=$1 AND to_group_id=$2)
        AND EXISTS(SELECT 1 FROM likes WHERE from_group_id=$2 AND to_group_id=$1)`, groupA, groupB); err != nil {
		return nil, false, err
	}
	if !mutual {
		if err = tx.Commit(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO matches (id, pair_key, group_a, group_b) VALUES ($1, $2, $3, $4)
        ON CONFLICT (pair_key) DO NOTHING`, candidate.ID, candidate.PairKey, candidate.GroupA, candidate.GroupB)
	if err != nil {
		return nil, false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	var match models.Match
	if err = tx.GetContext(ctx, &match, `SELECT id, pair_key, group_a, group_b, created_at FROM matches WHERE pair_key=$1`, candidate.PairKey); err != nil {
		return nil, false, err
	}

	if err = tx.Commit(); err != nil {
		return nil, false, err
	}
	return &match, inserted == 1, nil
}

// GetMatch fetches a match by id.
func (r *MatchRepo) GetMatch(ctx context.Context, matchID string) (models.Match, error) {
	var match models.Match
	err := r.db.GetContext(ctx, &match, `SELECT id, pair_key, group_a, group_b, created_at FROM matches WHERE id=$1`, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Match{}, ErrMatchNotFound
	}
	return match, err
}

// ListMatchesForGroup returns the group's matches, newest first.
func (r *MatchRepo) ListMatchesForGroup(ctx context.Context, groupID string) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.SelectContext(ctx, &matches, `SELECT id, pair_key, group_a, group_b, created_at FROM matches
        WHERE group_a=$1 OR group_b=$1
        ORDER BY created_at DESC`, groupID)
	return matches, err
}
