package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/coldemail-backend/internal/config"
	"github.com/unclebandit/coldemail-backend/internal/db"
	"github.com/unclebandit/coldemail-backend/internal/logger"
	"github.com/unclebandit/coldemail-backend/internal/mailer"
	"github.com/unclebandit/coldemail-backend/internal/queue"
	"github.com/unclebandit/coldemail-backend/internal/repository"
	"github.com/unclebandit/coldemail-backend/internal/security"
	"github.com/unclebandit/coldemail-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.AMQPURL == "" {
		log.Fatal().Msg("❌ AMQP_URL is not set, the worker only consumes from RabbitMQ")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Database unavailable")
	}
	defer conn.Close()

	emailService := &service.EmailService{
		Users:     &repository.UserRepository{DB: conn},
		Prospects: &repository.ProspectRepository{DB: conn},
		EmailLogs: &repository.EmailLogRepository{DB: conn},
		Mailer: mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:    cfg.SMTPHost,
			Port:    cfg.SMTPPort,
			Timeout: cfg.SMTPTimeout,
		}, logger.Component("mailer")),
		Box:           security.NewSecretBox(cfg.SecretKey),
		Signature:     cfg.SenderSignature,
		PublicBaseURL: cfg.PublicBaseURL,
	}

	q, err := queue.NewAMQPQueue(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to connect to RabbitMQ")
	}
	defer q.Close()

	if err := consume(q, emailService, cfg.SMTPTimeout*2); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to register consumer")
	}

	log.Info().Str("queue", queue.EmailSendsTopic).Msg("👷 Worker running, waiting for messages...")
	<-ctx.Done()
	log.Info().Msg("🛑 Worker stopping")
}

// consume attaches a delivery worker to the email send topic.
func consume(q queue.Queue, d service.EmailDeliverer, timeout time.Duration) error {
	return queue.StartEmailSendSubscriber(q, service.NewWorker(d, timeout).Handle)
}
