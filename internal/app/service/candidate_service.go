package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"ballotbox/internal/common"
	"ballotbox/internal/domain/model"
	"ballotbox/internal/domain/repository"
	"ballotbox/internal/platform/cache"
	"ballotbox/internal/platform/config"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
)

type CandidateService struct {
	candidateRepo repository.CandidateRepository
	userRepo      repository.UserRepository
	rdb           *redis.Client
}

func NewCandidateService(
	candidateRepo repository.CandidateRepository,
	userRepo repository.UserRepository,
	rdb *redis.Client,
) *CandidateService {
	return &CandidateService{
		candidateRepo: candidateRepo,
		userRepo:      userRepo,
		rdb:           rdb,
	}
}

type CandidateRequest struct {
	Name  string `json:"name"`
	Party string `json:"party"`
	Age   int    `json:"age"`
}

func (req CandidateRequest) Validate() error {
	if req.Name == "" {
		return fmt.Errorf("name is required: %w", common.ErrValidation)
	}
	if req.Party == "" {
		return fmt.Errorf("party is required: %w", common.ErrValidation)
	}
	if req.Age <= 0 {
		return fmt.Errorf("age must be positive: %w", common.ErrValidation)
	}
	return nil
}

// requireAdmin checks the acting user's stored role, not just the token claim,
// so a stale token cannot outlive a role change.
func (s *CandidateService) requireAdmin(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load acting user: %w", err)
	}
	if user.Role != model.RoleAdmin {
		return fmt.Errorf("user does not have admin role: %w", common.ErrForbidden)
	}
	return nil
}

func (s *CandidateService) CreateCandidate(ctx context.Context, adminID string, req CandidateRequest) (*model.Candidate, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	candidate := &model.Candidate{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Party: req.Party,
		Slug:  slug.Make(req.Name + "-" + req.Party),
		Age:   req.Age,
	}

	if err := s.candidateRepo.Create(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	return candidate, nil
}

func (s *CandidateService) UpdateCandidate(ctx context.Context, adminID, candidateID string, req CandidateRequest) (*model.Candidate, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	candidate, err := s.candidateRepo.FindByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("candidate not found: %w", err)
	}

	candidate.Name = req.Name
	candidate.Party = req.Party
	candidate.Slug = slug.Make(req.Name + "-" + req.Party)
	candidate.Age = req.Age

	if err := s.candidateRepo.Update(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to update candidate: %w", err)
	}
	return candidate, nil
}

func (s *CandidateService) DeleteCandidate(ctx context.Context, adminID, candidateID string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.candidateRepo.Delete(ctx, candidateID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("candidate not found: %w", err)
		}
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	s.invalidateTally(ctx)
	return nil
}

func (s *CandidateService) ListCandidates(ctx context.Context) ([]model.CandidateSummary, error) {
	summaries, err := s.candidateRepo.ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return summaries, nil
}

// VoteTally serves the leaderboard read-through from Redis. A cache miss or a
// cache failure falls back to Postgres.
func (s *CandidateService) VoteTally(ctx context.Context) ([]model.TallyEntry, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, cache.TallyKey).Result()
		if err == nil {
			var entries []model.TallyEntry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				return entries, nil
			}
		} else if err != redis.Nil {
			log.Printf("tally cache read failed: %v", err)
		}
	}

	entries, err := s.candidateRepo.Tally(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute vote tally: %w", err)
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(entries); err == nil {
			if err := s.rdb.Set(ctx, cache.TallyKey, payload, config.AppConfig.TallyCacheTTL).Err(); err != nil {
				log.Printf("tally cache write failed: %v", err)
			}
		}
	}
	return entries, nil
}

func (s *CandidateService) invalidateTally(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, cache.TallyKey).Err(); err != nil {
		log.Printf("tally cache invalidation failed: %v", err)
	}
}
