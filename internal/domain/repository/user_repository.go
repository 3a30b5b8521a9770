package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ballotbox/internal/common"
	"ballotbox/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByNationalID(ctx context.Context, nationalID string) (*model.User, error)
	AdminExists(ctx context.Context) (bool, error)
	UpdatePassword(ctx context.Context, id, hashedPassword string) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, name, age, email, mobile, address, national_id, hashed_password, role, has_voted)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Age, user.Email, user.Mobile, user.Address,
		user.NationalID, user.HashedPassword, user.Role, user.HasVoted,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("user with the same national ID already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *pgUserRepository) FindByNationalID(ctx context.Context, nationalID string) (*model.User, error) {
	return r.findOne(ctx, `WHERE national_id = $1`, nationalID)
}

func (r *pgUserRepository) findOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	query := `SELECT id, name, age, email, mobile, address, national_id, hashed_password, role, has_voted, created_at, updated_at
	          FROM users ` + where
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Age, &user.Email, &user.Mobile, &user.Address,
		&user.NationalID, &user.HashedPassword, &user.Role, &user.HasVoted,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.findOne: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) AdminExists(ctx context.Context) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE role = $1)`
	if err := r.db.QueryRowContext(ctx, query, model.RoleAdmin).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgUserRepository.AdminExists: %w", err)
	}
	return exists, nil
}

// UpdatePassword writes a new hash for the given user. Only the password
// column is touched; other profile writes never rehash.
func (r *pgUserRepository) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	query := `UPDATE users SET hashed_password = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, hashedPassword, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdatePassword: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdatePassword rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
