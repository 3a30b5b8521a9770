package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ballotbox/internal/api"
	"ballotbox/internal/app/service"
	"ballotbox/internal/app/worker"
	"ballotbox/internal/common/security"
	"ballotbox/internal/domain/repository"
	"ballotbox/internal/platform/cache"
	"ballotbox/internal/platform/config"
	"ballotbox/internal/platform/database"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	cache.Connect()
	defer cache.Close()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	candidateRepo := repository.NewPgCandidateRepository(database.DB)
	voteRepo := repository.NewPgVoteRepository(database.DB)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	candidateService := service.NewCandidateService(candidateRepo, userRepo, cache.RDB)
	voteService := service.NewVoteService(voteRepo, candidateRepo, userRepo, cache.RDB)

	// 7. Initialize Tally Refresher (as a goroutine)
	tallyRefresher := worker.NewTallyRefresher(cache.RDB, candidateRepo)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go tallyRefresher.Start(workerCtx)
	fmt.Println("Tally refresher started.")

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, userService, candidateService, voteService, userRepo)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
