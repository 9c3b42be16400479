package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	redisCache "github.com/MentoraPower/beauty-growth-form-sub002/internal/cache/redis"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/domain"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/gateway/email"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/gateway/wagateway"
	httpHandler "github.com/MentoraPower/beauty-growth-form-sub002/internal/handler/http"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/persistant/postgresql"
	chatRepo "github.com/MentoraPower/beauty-growth-form-sub002/internal/repository/chat"
	leadRepo "github.com/MentoraPower/beauty-growth-form-sub002/internal/repository/lead"
	routingRepo "github.com/MentoraPower/beauty-growth-form-sub002/internal/repository/routing"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/service"
	"github.com/MentoraPower/beauty-growth-form-sub002/internal/storage/blob"
	"gorm.io/gorm"
)

var (
	configFile = flag.String("config", "config.json", "config file path")
)

func main() {
	// create root context
	appCtx, appCtxCancel := context.WithCancel(context.Background())
	defer appCtxCancel()

	// listen for terminate signal
	notifyCtx, stop := signal.NotifyContext(appCtx, syscall.SIGTERM)
	defer stop()

	// parse flags
	flag.Parse()

	// parse config
	config, err := ReadConfigJson(*configFile)
	if err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	// initialize external dependencies
	db, rClient, err := initExternalDependencies(notifyCtx, config)
	if err != nil {
		log.Fatalf("failed to initialize external dependencies: %v", err)
	}

	// setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// init repositories
	leads := leadRepo.NewLeadRepository(db)
	chats := chatRepo.NewChatRepository(db)
	routing := routingRepo.NewRoutingRepository(db)

	// init outbound clients
	gateway := wagateway.NewClient(config.GatewayBaseURL, config.GatewaySession, config.GatewayToken)
	blobStore := blob.NewClient(config.BlobBaseURL, config.BlobBucket, config.BlobAPIKey)
	emailClient := email.NewClient(config.EmailBaseURL, config.EmailAPIKey, config.EmailFrom)

	// init services
	dispatcher, err := service.NewDispatcher(
		emailClient,
		rClient,
		logger.With(slog.String("component", "automation")),
		config.EmailNotifyTo,
		&config.EmailMaxRetry,
	)
	if err != nil {
		log.Fatalf("failed to initiate automation dispatcher: %v", err)
	}

	intake := service.NewIntake(
		leads,
		routing,
		dispatcher,
		rClient,
		logger.With(slog.String("component", "intake")),
		service.RoutingDefaults{
			SubOriginID: config.DefaultSubOriginID,
			PipelineID:  config.DefaultPipelineID,
		},
	)

	media := service.NewMediaPipeline(
		gateway,
		blobStore,
		logger.With(slog.String("component", "media")),
	)

	processor := service.NewProcessor(
		chats,
		media,
		rClient,
		logger.With(slog.String("component", "webhook")),
		config.GatewaySession,
	)

	// init http handler
	handler := httpHandler.NewHttpHandler(
		fmt.Sprintf(":%d", config.HttpPort),
		intake,
		processor,
	)

	wg := sync.WaitGroup{}
	// run http handler
	wg.Go(func() {
		if err := handler.Run(); err != nil {
			logger.Error("http server encountered with an error and closed", "error", err.Error())
		}
		// cancel app context if http handler fails
		appCtxCancel()
	})

	// graceful shutdown
	wg.Go(func() {
		<-notifyCtx.Done()
		logger.Info("application shutting down...")

		shutDownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		handler.Shutdown(shutDownCtx)
		postgresql.Close(db)
	})

	wg.Wait()
	os.Exit(0)
}

func initExternalDependencies(ctx context.Context, config *Config) (db *gorm.DB, rCache *redisCache.RedisCache, err error) {
	// initialize database
	db, err = postgresql.Initialize(config.DbConnString, []any{
		&domain.Lead{},
		&domain.LeadCustomField{},
		&domain.IntakeLog{},
		&domain.Origin{},
		&domain.SubOrigin{},
		&domain.Pipeline{},
		&domain.Chat{},
		&domain.Message{},
	})
	if err != nil {
		return
	}

	// initialize cache
	rCache, err = redisCache.NewRedisCache(ctx, config.RedisAddr)

	return
}
