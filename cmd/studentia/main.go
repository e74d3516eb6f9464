package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/studentia/internal/app"
	"github.com/Freeeeeet/studentia/internal/config"
	"github.com/Freeeeeet/studentia/internal/controller/httpapi"
	"github.com/Freeeeeet/studentia/internal/encryption"
	"github.com/Freeeeeet/studentia/internal/ledger"
	"github.com/Freeeeeet/studentia/internal/model"
	"github.com/Freeeeeet/studentia/internal/notify"
	"github.com/Freeeeeet/studentia/internal/observability"
	"github.com/Freeeeeet/studentia/internal/repository"
	"github.com/Freeeeeet/studentia/internal/repository/memory"
	"github.com/Freeeeeet/studentia/internal/service"
	"github.com/Freeeeeet/studentia/migrations"
)

// version задаётся через -ldflags при сборке
var version = "dev"

type stores struct {
	requests      service.AccessRequestStore
	documents     service.DocumentStore
	dataGroups    service.GroupStore
	requestGroups service.GroupStore
	requesters    service.RequesterStore
	events        service.ConsentEventStore
	health        httpapi.Pinger
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Environment, version)
	if err != nil {
		logger.Warn("Sentry disabled", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		observability.CaptureErr(err)
		logger.Error("Studentia stopped with error", zap.Error(err))
		flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting studentia",
		zap.String("environment", cfg.Environment),
		zap.String("version", version),
		zap.String("store", cfg.Store),
		zap.String("ledger", cfg.LedgerMode))

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	chain, err := openLedger(cfg, logger)
	if err != nil {
		return err
	}

	sealer, err := encryption.NewSealer(cfg.DataEncKey)
	if err != nil {
		return fmt.Errorf("DATA_ENC_KEY: %w", err)
	}
	logger.Info("Document storage mode", zap.String("mode", string(sealer.Mode())))

	var notifier service.Notifier = service.NopNotifier{}
	if cfg.NotificationsEnabled() {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, logger.Named("telegram"))
		if err != nil {
			return err
		}
		notifier = tg
	}

	consents := service.NewConsentService(chain, st.events, cfg.LedgerTimeout, logger.Named("consents"))
	auth := service.NewAuthorizationService(consents, logger.Named("authorization"))
	requests := service.NewAccessRequestService(st.requests, consents, notifier, cfg.ClaimTTL, logger.Named("access_requests"))
	requestGroups := service.NewGroupService(model.GroupKindRequest, st.requestGroups, st.requesters, logger.Named("request_groups"))

	handler := httpapi.NewHandler(httpapi.Services{
		Consents:      consents,
		Requests:      requests,
		Documents:     service.NewDocumentService(st.documents, auth, sealer, cfg.MaxUploadBytes, logger.Named("documents")),
		DataGroups:    service.NewGroupService(model.GroupKindData, st.dataGroups, nil, logger.Named("data_groups")),
		RequestGroups: requestGroups,
		Requesters:    service.NewRequesterService(st.requesters, requestGroups, logger.Named("requesters")),
	}, st.health, cfg.MaxUploadBytes, logger.Named("http"))

	scheduler := app.NewScheduler(requests, cfg.SweepInterval, logger.Named("scheduler"))
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := app.StartHTTP(ctx, cfg.HTTPAddr, handler.Routes(), logger)
	<-ctx.Done()
	logger.Info("Shutting down")
	srv.Wait()
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		return &stores{
			requests:      memory.NewAccessRequestRepository(),
			documents:     memory.NewDocumentRepository(),
			dataGroups:    memory.NewGroupRepository(),
			requestGroups: memory.NewGroupRepository(),
			requesters:    memory.NewRequesterRepository(),
			events:        memory.NewConsentEventRepository(),
			close:         func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &stores{
		requests:      repository.NewAccessRequestRepository(pool),
		documents:     repository.NewDocumentRepository(pool),
		dataGroups:    repository.NewGroupRepository(pool, model.GroupKindData),
		requestGroups: repository.NewGroupRepository(pool, model.GroupKindRequest),
		requesters:    repository.NewRequesterRepository(pool),
		events:        repository.NewConsentEventRepository(pool),
		health:        pool,
		close:         pool.Close,
	}, nil
}

func openLedger(cfg *config.Config, logger *zap.Logger) (ledger.Client, error) {
	if cfg.LedgerMode == config.LedgerLocal {
		logger.Warn("Using local in-memory ledger, consents are not on chain")
		return ledger.NewMemory(), nil
	}

	client, err := ledger.NewAlgodClient(ledger.AlgodConfig{
		Address:        cfg.AlgodAddress(),
		Token:          cfg.AlgodToken,
		AppID:          cfg.AppID,
		SignerMnemonic: cfg.SignerMnemonic,
		WaitRounds:     cfg.LedgerWaitRounds,
		ReadRetries:    cfg.LedgerReadRetries,
	}, logger.Named("algod"))
	if err != nil {
		return nil, err
	}
	logger.Info("Algod ledger ready",
		zap.String("address", cfg.AlgodAddress()),
		zap.Uint64("app_id", cfg.AppID),
		zap.String("signer", client.Signer()))
	return client, nil
}
