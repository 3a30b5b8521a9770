package cache

import (
	"context"
	"fmt"
	"log"

	"ballotbox/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// TallyKey holds the cached leaderboard for GET /candidate/vote/count.
const TallyKey = "vote:tally"

var RDB *redis.Client

func Connect() {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx := context.Background()
	_, err := RDB.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	fmt.Println("Successfully connected to Redis!")
}

func Close() {
	if RDB != nil {
		RDB.Close()
		fmt.Println("Redis connection closed.")
	}
}
