package bootstrap

import (
	"context"
	"log"

	"proposal-intake-be/internal/config"
	"proposal-intake-be/internal/controller"
	"proposal-intake-be/internal/pkg/logger"
	"proposal-intake-be/internal/pkg/mailer"
	"proposal-intake-be/internal/pkg/serverutils"
	"proposal-intake-be/internal/repository/memory"
	"proposal-intake-be/internal/repository/unitofwork"
	"proposal-intake-be/internal/service"
	"proposal-intake-be/pkg/artifact"
	"proposal-intake-be/pkg/document"
	"proposal-intake-be/pkg/llm/factory"
	"proposal-intake-be/pkg/lock"
	"proposal-intake-be/pkg/proposal/orchestrator"
	"proposal-intake-be/pkg/proposal/synthesis"
	"proposal-intake-be/pkg/questionnaire"

	pktNats "proposal-intake-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ConversationController controller.IConversationController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	DeliveryService service.IDeliveryService

	Logger  *logger.ZapLogger
	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	definition, err := loadDefinition(cfg.App.QuestionnaireFile)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load questionnaire: %v", err)
	}
	resolver := questionnaire.NewResolver(definition, sysLogger)

	// 2. LLM
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.Provider,
		Model:    cfg.Ai.Model,
		BaseURL:  cfg.Ai.BaseURL,
		APIKey:   cfg.Ai.APIKey,
		Timeout:  cfg.Ai.Timeout,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)

	synthesizer := synthesis.NewSynthesizer(llmProvider, sysLogger,
		synthesis.WithBranding(synthesis.Branding{
			CompanyName: cfg.Proposal.CompanyName,
			ContactLine: cfg.Proposal.ContactLine,
		}),
		synthesis.WithGenerationParams(cfg.Ai.ProposalMaxTokens, cfg.Ai.ProposalTemperature),
		synthesis.WithTimeout(cfg.Ai.Timeout),
		synthesis.WithCallLog(logger.NewIsolatedLogger(cfg.Ai.CallLogPath)),
	)
	renderer := document.NewRenderer(sysLogger,
		document.WithAuthor(cfg.Proposal.CompanyName),
		document.WithFooter(cfg.Proposal.CompanyName+" | "+cfg.Proposal.ContactLine),
	)

	// 3. Storage & Locking
	artifacts, err := artifact.NewFileStore(cfg.App.UploadDir)
	if err != nil {
		log.Fatalf("[FATAL] Failed to prepare artifact storage: %v", err)
	}
	locker := newLocker(cfg, sysLogger, c)

	store := service.NewConversationStore(uowFactory)
	tasks := memory.NewGenerationTaskRepository()

	orch := orchestrator.New(orchestrator.Deps{
		Store:       store,
		Synthesizer: synthesizer,
		Renderer:    renderer,
		Artifacts:   artifacts,
		Locker:      locker,
		Logger:      sysLogger,
	},
		orchestrator.WithObserver(service.TaskObserver(tasks)),
		orchestrator.WithLockWait(cfg.Proposal.LockWait),
		orchestrator.WithBranding(cfg.Proposal.CompanyName, cfg.Proposal.ContactLine),
	)

	// 4. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	retryPublisher := service.NewPublisherService(cfg.Proposal.RetryTopic, pubSub)

	proposalOpts := []service.ProposalServiceOption{
		service.WithRetryQueue(retryPublisher, cfg.Proposal.RetryAttempts),
	}
	if cfg.SMTPEnabled() {
		emailService := mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
		)
		proposalOpts = append(proposalOpts, service.WithMailer(emailService, artifacts))
	}

	// NATS
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			c.closers = append(c.closers, natsPub.Close)
			proposalOpts = append(proposalOpts, service.WithEventPublisher(natsPub))
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
			if natsPub != nil {
				proposalOpts = append(proposalOpts, service.WithEventDelivery())
			}
		}
	}

	// 5. Services
	proposalService := service.NewProposalService(orch, store, tasks, sysLogger, proposalOpts...)
	conversationService := service.NewConversationService(
		uowFactory,
		store,
		resolver,
		llmProvider,
		proposalService,
		artifacts,
		sysLogger,
		service.ConversationServiceConfig{
			BaseURL:         cfg.App.BaseURL,
			CompanyName:     cfg.Proposal.CompanyName,
			IntakeMaxTokens: cfg.Ai.IntakeMaxTokens,
		},
	)

	c.ConsumerService = service.NewRetryConsumerService(
		pubSub,
		cfg.Proposal.RetryTopic,
		proposalService,
		cfg.Proposal.RetryDelay,
		sysLogger,
	)
	if natsSub != nil {
		c.DeliveryService = service.NewDeliveryService(natsSub, proposalService, sysLogger)
	}
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 6. Controllers
	c.ConversationController = controller.NewConversationController(
		conversationService,
		serverutils.NewJwtMiddleware(cfg.Auth.JWTSecret),
	)

	return c
}

// Start launches the background consumers.
func (c *Container) Start(ctx context.Context) error {
	if err := c.ConsumerService.Consume(ctx); err != nil {
		return err
	}
	if c.DeliveryService != nil {
		if err := c.DeliveryService.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func loadDefinition(path string) (*questionnaire.Definition, error) {
	if path == "" {
		return questionnaire.DefaultDefinition()
	}
	return questionnaire.LoadDefinitionFile(path)
}

// newLocker uses Redis when configured so generation is exclusive across
// replicas, and an in-process lock otherwise.
func newLocker(cfg *config.Config, sysLogger logger.ILogger, c *Container) lock.Locker {
	if cfg.App.RedisURL == "" {
		return lock.NewKeyedMutex()
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Redis unreachable, using in-process generation lock", map[string]interface{}{
			"error": err.Error(),
		})
		_ = rdb.Close()
		return lock.NewKeyedMutex()
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return lock.NewRedisLocker(rdb, "proposal:lock:", cfg.Proposal.LockTTL)
}
