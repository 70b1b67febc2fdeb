package repository

import (
	"context"
	"errors"

	"github.com/example/table-reservations/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository resolves user ids to contact details for notifications.
// Account management (registration, passwords, sessions) is out of scope;
// rows in the users table are maintained by the identity collaborator.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GetContact returns a user's contact record or ErrNotFound.
func (r *UserRepository) GetContact(ctx context.Context, userID string) (*model.UserContact, error) {
	var c model.UserContact
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, phone FROM users WHERE id = $1`,
		userID,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeErr("get user contact", err)
	}
	return &c, nil
}
