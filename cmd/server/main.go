// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/coldemail-backend/internal/config"
	"github.com/unclebandit/coldemail-backend/internal/controller"
	"github.com/unclebandit/coldemail-backend/internal/db"
	"github.com/unclebandit/coldemail-backend/internal/handler"
	"github.com/unclebandit/coldemail-backend/internal/llm"
	"github.com/unclebandit/coldemail-backend/internal/logger"
	"github.com/unclebandit/coldemail-backend/internal/mailer"
	"github.com/unclebandit/coldemail-backend/internal/queue"
	"github.com/unclebandit/coldemail-backend/internal/rag"
	"github.com/unclebandit/coldemail-backend/internal/repository"
	"github.com/unclebandit/coldemail-backend/internal/router"
	"github.com/unclebandit/coldemail-backend/internal/scraper"
	"github.com/unclebandit/coldemail-backend/internal/security"
	"github.com/unclebandit/coldemail-backend/internal/service"
	"github.com/unclebandit/coldemail-backend/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Database unavailable")
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("❌ Migration failed")
	}

	userRepo := &repository.UserRepository{DB: conn}
	prospectRepo := &repository.ProspectRepository{DB: conn}
	emailLogRepo := &repository.EmailLogRepository{DB: conn}

	tokens, err := security.NewTokenManager(cfg.SecretKey, cfg.AccessTokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Token manager")
	}
	box := security.NewSecretBox(cfg.SecretKey)

	writer := &llm.OpeningLineWriter{Log: logger.Component("llm")}
	var research *rag.Service
	client, err := llm.NewClient(ctx, cfg.GeminiAPIKey, cfg.GenerationModel, cfg.EmbeddingModel, cfg.EmbeddingDim)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ LLM disabled, drafts will use the fallback opening line")
	} else {
		writer.Generator = client

		store, err := vectorstore.Open(cfg.VectorDBPath, cfg.EmbeddingDim)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.VectorDBPath).Msg("❌ Vector store unavailable")
		}
		defer store.Close()
		research = &rag.Service{Embedder: client, Store: store, Log: logger.Component("rag")}
	}

	web := scraper.New(scraper.Config{
		UseBrowser:     cfg.ScrapeUseBrowser,
		BrowserTimeout: cfg.ScrapeTimeout,
		HTTPTimeout:    cfg.ScrapeTimeout,
	}, logger.Component("scraper"))

	sender := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:    cfg.SMTPHost,
		Port:    cfg.SMTPPort,
		Timeout: cfg.SMTPTimeout,
	}, logger.Component("mailer"))

	var q queue.Queue
	var amqpQueue *queue.AMQPQueue
	var memQueue *queue.InMemoryQueue
	if cfg.AMQPURL != "" {
		amqpQueue, err = queue.NewAMQPQueue(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("❌ RabbitMQ unavailable")
		}
		defer amqpQueue.Close()
		q = amqpQueue
	} else {
		memQueue = queue.NewInMemoryQueue()
		q = memQueue
	}

	prospectService := &service.ProspectService{Prospects: prospectRepo}
	if research != nil {
		prospectService.Research = research
	}
	researchService := &service.ResearchService{
		Prospects: prospectRepo,
		EmailLogs: emailLogRepo,
		Scraper:   web,
		Writer:    writer,
		Signature: cfg.SenderSignature,
	}
	if research != nil {
		researchService.Research = research
	}
	emailService := &service.EmailService{
		Users:         userRepo,
		Prospects:     prospectRepo,
		EmailLogs:     emailLogRepo,
		Mailer:        sender,
		Box:           box,
		Queue:         q,
		Signature:     cfg.SenderSignature,
		PublicBaseURL: cfg.PublicBaseURL,
	}

	// Without RabbitMQ the server delivers batch sends itself.
	if amqpQueue == nil {
		worker := service.NewWorker(emailService, cfg.SMTPTimeout*2)
		if err := queue.StartEmailSendSubscriber(q, worker.Handle); err != nil {
			log.Fatal().Err(err).Msg("❌ Failed to subscribe to email sends")
		}
	}

	h := router.New(router.Deps{
		Auth: &controller.AuthController{
			AuthService: &service.AuthService{Users: userRepo, Tokens: tokens, Box: box},
		},
		Prospects: &controller.ProspectController{ProspectService: prospectService},
		Research: &controller.ResearchController{
			ResearchService: researchService,
			EmailService:    emailService,
		},
		Analytics: &controller.AnalyticsController{
			AnalyticsService: &service.AnalyticsService{Prospects: prospectRepo, EmailLogs: emailLogRepo},
		},
		Tracking:       &handler.TrackingHandler{Tracker: emailService},
		Tokens:         tokens,
		Users:          userRepo,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthRateLimit:  cfg.AuthRateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("🚀 Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("❌ Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("❌ Graceful shutdown failed")
	}

	// In-process sends still running finish before the database closes.
	if memQueue != nil {
		drained := make(chan struct{})
		go func() {
			memQueue.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-shutdownCtx.Done():
			log.Warn().Msg("⚠️ Shutdown deadline reached with email sends still running")
		}
	}
}
