package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"ballotbox/internal/domain/repository"
	"ballotbox/internal/platform/cache"
	"ballotbox/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// TallyRefresher keeps the cached leaderboard warm so the public vote-count
// endpoint rarely hits Postgres between invalidations.
type TallyRefresher struct {
	rdb           *redis.Client
	candidateRepo repository.CandidateRepository
}

func NewTallyRefresher(rdb *redis.Client, candidateRepo repository.CandidateRepository) *TallyRefresher {
	return &TallyRefresher{rdb: rdb, candidateRepo: candidateRepo}
}

func (w *TallyRefresher) Start(ctx context.Context) {
	interval := config.AppConfig.TallyRefreshInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Tally refresher started (interval %s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("Tally refresher stopping...")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *TallyRefresher) refresh(ctx context.Context) {
	entries, err := w.candidateRepo.Tally(ctx)
	if err != nil {
		log.Printf("tally refresh query failed: %v", err)
		return
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		log.Printf("tally refresh marshal failed: %v", err)
		return
	}
	if err := w.rdb.Set(ctx, cache.TallyKey, payload, config.AppConfig.TallyCacheTTL).Err(); err != nil {
		log.Printf("tally refresh cache write failed: %v", err)
	}
}
