package repositories

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pqForeignKeyViolation = "23503"

// NewPostgresStore wires the sqlx repositories over one connection pool.
func NewPostgresStore(db *sqlx.DB) Store {
	return Store{
		Groups:   NewGroupRepo(db),
		Users:    NewUserRepo(db),
		Likes:    NewLikeRepo(db),
		Matches:  NewMatchRepo(db),
		Messages: NewMessageRepo(db),
		Ping:     db.PingContext,
		Close:    db.Close,
	}
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
