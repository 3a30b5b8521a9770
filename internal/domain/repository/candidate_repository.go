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

type CandidateRepository interface {
	Create(ctx context.Context, candidate *model.Candidate) error
	Update(ctx context.Context, candidate *model.Candidate) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Candidate, error)
	ListSummaries(ctx context.Context) ([]model.CandidateSummary, error)
	Tally(ctx context.Context) ([]model.TallyEntry, error)
	VotesForCandidate(ctx context.Context, candidateID string) ([]model.Vote, error)
}

type pgCandidateRepository struct {
	db *sql.DB
}

func NewPgCandidateRepository(db *sql.DB) CandidateRepository {
	return &pgCandidateRepository{db: db}
}

func (r *pgCandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	query := `INSERT INTO candidates (id, name, party, slug, age, vote_count)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Party, c.Slug, c.Age, c.VoteCount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("candidate with this name and party already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCandidateRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCandidateRepository) Update(ctx context.Context, c *model.Candidate) error {
	query := `UPDATE candidates SET name = $1, party = $2, slug = $3, age = $4, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, c.Name, c.Party, c.Slug, c.Age, c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("candidate with this name and party already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCandidateRepository.Update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgCandidateRepository.Update rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the candidate; its vote rows go with it via ON DELETE CASCADE.
func (r *pgCandidateRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgCandidateRepository.Delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgCandidateRepository.Delete rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCandidateRepository) FindByID(ctx context.Context, id string) (*model.Candidate, error) {
	query := `SELECT id, name, party, slug, age, vote_count, created_at, updated_at
	          FROM candidates WHERE id = $1`
	c := &model.Candidate{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Party, &c.Slug, &c.Age, &c.VoteCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCandidateRepository.FindByID: %w", err)
	}
	return c, nil
}

func (r *pgCandidateRepository) ListSummaries(ctx context.Context) ([]model.CandidateSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, party, slug FROM candidates`)
	if err != nil {
		return nil, fmt.Errorf("pgCandidateRepository.ListSummaries query: %w", err)
	}
	defer rows.Close()

	summaries := []model.CandidateSummary{}
	for rows.Next() {
		var s model.CandidateSummary
		if err := rows.Scan(&s.Name, &s.Party, &s.Slug); err != nil {
			return nil, fmt.Errorf("pgCandidateRepository.ListSummaries scan: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCandidateRepository.ListSummaries rows.Err: %w", err)
	}
	return summaries, nil
}

// Tally returns party and vote count for every candidate, highest count
// first. Ties keep a stable order by candidate name.
func (r *pgCandidateRepository) Tally(ctx context.Context) ([]model.TallyEntry, error) {
	query := `SELECT party, vote_count FROM candidates ORDER BY vote_count DESC, name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgCandidateRepository.Tally query: %w", err)
	}
	defer rows.Close()

	entries := []model.TallyEntry{}
	for rows.Next() {
		var e model.TallyEntry
		if err := rows.Scan(&e.Party, &e.Count); err != nil {
			return nil, fmt.Errorf("pgCandidateRepository.Tally scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCandidateRepository.Tally rows.Err: %w", err)
	}
	return entries, nil
}

func (r *pgCandidateRepository) VotesForCandidate(ctx context.Context, candidateID string) ([]model.Vote, error) {
	query := `SELECT id, candidate_id, user_id, voted_at FROM votes WHERE candidate_id = $1 ORDER BY voted_at ASC`
	rows, err := r.db.QueryContext(ctx, query, candidateID)
	if err != nil {
		return nil, fmt.Errorf("pgCandidateRepository.VotesForCandidate query: %w", err)
	}
	defer rows.Close()

	votes := []model.Vote{}
	for rows.Next() {
		var v model.Vote
		if err := rows.Scan(&v.ID, &v.CandidateID, &v.UserID, &v.VotedAt); err != nil {
			return nil, fmt.Errorf("pgCandidateRepository.VotesForCandidate scan: %w", err)
		}
		votes = append(votes, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCandidateRepository.VotesForCandidate rows.Err: %w", err)
	}
	return votes, nil
}
