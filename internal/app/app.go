package app

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/securesubmit-bookings/internal/adapters/crdb"
	"github.com/robertarktes/securesubmit-bookings/internal/adapters/mail"
	mongoadapter "github.com/robertarktes/securesubmit-bookings/internal/adapters/mongo"
	redisadapter "github.com/robertarktes/securesubmit-bookings/internal/adapters/redis"
	"github.com/robertarktes/securesubmit-bookings/internal/adapters/stripe"
	"github.com/robertarktes/securesubmit-bookings/internal/bookings"
	"github.com/robertarktes/securesubmit-bookings/internal/config"
	"github.com/robertarktes/securesubmit-bookings/internal/observability"
	"github.com/robertarktes/securesubmit-bookings/internal/outbox"
	"github.com/robertarktes/securesubmit-bookings/internal/payment"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Stack is everything a process needs to run the booking flow.
type Stack struct {
	Pool    *pgxpool.Pool
	Repo    *crdb.Repository
	Mongo   *mongo.Client
	Redis   *redisclient.Client
	Cache   *redisadapter.Cache
	Gateway *payment.Gateway
	Service *bookings.Service
}

func (s *Stack) Close(ctx context.Context) {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.Mongo != nil {
		_ = s.Mongo.Disconnect(ctx)
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func Build(ctx context.Context, cfg *config.Config, logger observability.Logger) (*Stack, error) {
	s := &Stack{}

	pool, err := pgxpool.New(ctx, cfg.CRDBDSN)
	if err != nil {
		return nil, errors.Wrap(err, "connect crdb")
	}
	s.Pool = pool
	s.Repo = crdb.NewRepository(pool)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		s.Close(ctx)
		return nil, errors.Wrap(err, "connect mongo")
	}
	s.Mongo = mongoClient
	mongoDB := mongoClient.Database(cfg.MongoDB)

	s.Redis = redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	s.Cache = redisadapter.NewCache(s.Redis)

	settings := LoadSettings(ctx, cfg, s.Cache, logger)
	notifier := NewNotifier(cfg, logger)
	events := outbox.NewBus(s.Repo)
	auditor := mongoadapter.NewAuditLogger(mongoDB, logger)

	s.Gateway = payment.NewGateway(settings, payment.Deps{
		Bookings:  bookings.NewBookingStore(s.Repo, notifier, logger),
		Customers: s.Repo,
		Processor: stripe.NewProcessor(cfg.StripeSecretKey, stripe.Options{
			VersionNumber: cfg.ProcessorVersionNumber,
			DeveloperID:   cfg.ProcessorDeveloperID,
		}, logger),
		Ledger:  s.Repo,
		Events:  events,
		Auditor: auditor,
		Logger:  logger,
	})
	s.Service = bookings.NewService(s.Repo, mongoadapter.NewCatalogRepository(mongoDB, logger), s.Gateway, auditor, notifier, logger)
	return s, nil
}

type settingsSource interface {
	GatewaySettings(ctx context.Context, gateway string) (map[string]string, error)
}

// LoadSettings builds gateway settings from config and overlays the stored
// gateway options when they can be read.
func LoadSettings(ctx context.Context, cfg *config.Config, src settingsSource, logger observability.Logger) payment.Settings {
	settings := payment.SettingsFromConfig(cfg)
	stored, err := src.GatewaySettings(ctx, payment.GatewayName)
	if err != nil {
		logger.WithError(err).Warn("stored gateway settings unavailable, using config only")
		return settings
	}
	return settings.Overlay(stored)
}

func NewNotifier(cfg *config.Config, logger observability.Logger) bookings.Notifier {
	if cfg.SMTPHost == "" {
		return logNotifier{logger: logger}
	}
	m, err := mail.NewMailer(mail.Options{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, logger)
	if err != nil {
		logger.WithError(err).Warn("mailer disabled")
		return logNotifier{logger: logger}
	}
	return m
}

// logNotifier only logs notices. Used when no SMTP server is configured.
type logNotifier struct {
	logger observability.Logger
}

func (n logNotifier) Send(ctx context.Context, notice payment.Notice) error {
	n.logger.WithField("subject", notice.Subject).Info("notice not mailed, smtp disabled")
	return nil
}
