package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ballotbox/internal/common"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type VoteRepository interface {
	// CastVote atomically flips the voter's has_voted flag, records the vote
	// and increments the candidate tally. It fails with ErrAlreadyVoted if the
	// flag was already set, and ErrNotFound if either row is missing.
	CastVote(ctx context.Context, voterID, candidateID string, votedAt time.Time) error
}

type pgVoteRepository struct {
	db *sql.DB
}

func NewPgVoteRepository(db *sql.DB) VoteRepository {
	return &pgVoteRepository{db: db}
}

func (r *pgVoteRepository) CastVote(ctx context.Context, voterID, candidateID string, votedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgVoteRepository.CastVote begin: %w", err)
	}
	defer tx.Rollback()

	// Conditional flag flip first. Two concurrent casts for the same voter
	// race on this row; exactly one sees an affected row.
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET has_voted = TRUE, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 AND has_voted = FALSE`, voterID)
	if err != nil {
		return fmt.Errorf("pgVoteRepository.CastVote mark voter: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgVoteRepository.CastVote rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrAlreadyVoted
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO votes (id, candidate_id, user_id, voted_at) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), candidateID, voterID, votedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // UNIQUE(user_id) backstop
				return common.ErrAlreadyVoted
			case "23503": // candidate or user row gone
				return common.ErrNotFound
			}
		}
		return fmt.Errorf("pgVoteRepository.CastVote insert vote: %w", err)
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE candidates SET vote_count = vote_count + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`, candidateID)
	if err != nil {
		return fmt.Errorf("pgVoteRepository.CastVote increment tally: %w", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgVoteRepository.CastVote tally rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgVoteRepository.CastVote commit: %w", err)
	}
	return nil
}
