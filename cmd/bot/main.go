package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/maneralab/parsbot/internal/bot"
	"github.com/maneralab/parsbot/internal/config"
	"github.com/maneralab/parsbot/internal/database"
	"github.com/maneralab/parsbot/internal/flow"
	"github.com/maneralab/parsbot/internal/logger"
	"github.com/maneralab/parsbot/internal/migrator"
	"github.com/maneralab/parsbot/internal/nats"
	"github.com/maneralab/parsbot/internal/objstore"
	"github.com/maneralab/parsbot/internal/publisher"
	"github.com/maneralab/parsbot/internal/repository"
	"github.com/maneralab/parsbot/internal/web"
	"github.com/maneralab/parsbot/migrations"
)

func main() {
	// 1. Load config
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting harvesting bot service")

	// 3. Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// 4. Run migrations
	mig, err := migrator.NewWithFS(migrations.FS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create migrator")
	}
	if err := mig.Up(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// 5. Connect to database
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// 6. Connect to NATS: session and media blobs live in the object
	// store, so this connection is required
	nc, err := nats.New(ctx, cfg.NatsURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to nats")
	}
	defer nc.Close()

	if err := nc.EnsureStream(ctx, "POSTS", []string{"posts.>"}); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure posts stream")
	}

	bucket, err := nc.ObjectStore(ctx, cfg.BlobBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open blob bucket")
	}
	store := objstore.NewJetStreamStore(cfg.BlobBucket, bucket)

	pub := publisher.NewNATSPublisher(nc.Conn)

	// 7. Initialize repositories
	accountsRepo := repository.NewAccountsRepository(db.GORM)
	postsRepo := repository.NewPostsRepository(db.Pool)

	// 8. Initialize bot and flow service
	b, err := bot.New(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	svc := flow.NewService(
		ctx,
		flow.NewRegistry(),
		flow.NewManager(),
		accountsRepo,
		postsRepo,
		store,
		pub,
		b,
		cfg.Harvest,
	)
	b.SetFlow(svc)

	// 9. Initialize web server
	server := web.NewServer(cfg.HTTPPort, web.NewHandler(svc.Manager()))

	log.Info().Int("port", cfg.HTTPPort).Msg("starting web server")
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	go b.Start()

	// 10. Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down services...")

	b.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}
