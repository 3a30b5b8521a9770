package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ballotbox/internal/common"
	"ballotbox/internal/domain/model"
	"ballotbox/internal/domain/repository"
	"ballotbox/internal/platform/cache"

	"github.com/redis/go-redis/v9"
)

type VoteService struct {
	voteRepo      repository.VoteRepository
	candidateRepo repository.CandidateRepository
	userRepo      repository.UserRepository
	rdb           *redis.Client
}

func NewVoteService(
	voteRepo repository.VoteRepository,
	candidateRepo repository.CandidateRepository,
	userRepo repository.UserRepository,
	rdb *redis.Client,
) *VoteService {
	return &VoteService{
		voteRepo:      voteRepo,
		candidateRepo: candidateRepo,
		userRepo:      userRepo,
		rdb:           rdb,
	}
}

// CastVote records one vote for the candidate by the authenticated voter.
// The has_voted flip and the tally increment happen in one storage
// transaction; the fail-fast checks here only produce friendlier errors, the
// repository re-checks the flag atomically.
func (s *VoteService) CastVote(ctx context.Context, voterID, candidateID string) error {
	if _, err := s.candidateRepo.FindByID(ctx, candidateID); err != nil {
		return fmt.Errorf("candidate not found: %w", err)
	}

	voter, err := s.userRepo.FindByID(ctx, voterID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}
	if voter.HasVoted {
		return fmt.Errorf("you have already voted: %w", common.ErrAlreadyVoted)
	}
	if voter.Role == model.RoleAdmin {
		return fmt.Errorf("admin is not authorized to vote: %w", common.ErrForbidden)
	}

	if err := s.voteRepo.CastVote(ctx, voterID, candidateID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, cache.TallyKey).Err(); err != nil {
			log.Printf("tally cache invalidation failed: %v", err)
		}
	}
	return nil
}
