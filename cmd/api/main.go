package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	httpadp "approvalflow-backend/internal/adapter/http"
	appmw "approvalflow-backend/internal/adapter/middleware"
	natsadp "approvalflow-backend/internal/adapter/notify"
	"approvalflow-backend/internal/adapter/repository/mysql"
	"approvalflow-backend/internal/config"
	"approvalflow-backend/internal/domain/notify"
	"approvalflow-backend/internal/infrastructure/cache"
	"approvalflow-backend/internal/infrastructure/db"
	"approvalflow-backend/internal/usecase/chainadmin"
	"approvalflow-backend/internal/usecase/slamonitor"
	"approvalflow-backend/internal/usecase/workflow"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "approvalflow").Logger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("open mysql")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("open redis")
	}

	var publisher notify.Publisher = notify.Noop{}
	natsPub, err := natsadp.Open(cfg.NATSURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect nats")
	}
	if natsPub != nil {
		publisher = natsPub
		defer natsPub.Close()
	}

	chainRepo := mysql.NewChainRepository(gdb)
	requestRepo := mysql.NewRequestRepository(gdb)
	taskRepo := mysql.NewTaskRepository(gdb)
	uow := mysql.NewGormUoW(gdb)

	chainUC := chainadmin.NewUsecase(chainRepo, log)
	workflowUC := workflow.NewUsecase(requestRepo, taskRepo, uow, publisher, log)
	monitor := slamonitor.New(requestRepo, uow, publisher, log, cfg.SweepInterval, cfg.SLAWarningHours)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go monitor.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	idem := appmw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)

	h := httpadp.NewHandler()
	ch := httpadp.NewChainHandler(chainUC)
	wh := httpadp.NewWorkflowHandler(workflowUC)

	e.GET("/health", h.Health)

	e.POST("/chains", ch.RegisterChain)
	e.GET("/chains", ch.ListChains)
	e.GET("/chains/:chain_id", ch.GetChain)

	e.POST("/requests", wh.CreateRequest, idem)
	e.GET("/requests/:request_id", wh.GetRequest)
	e.GET("/requests/:request_id/history", wh.GetHistory)
	e.POST("/requests/:request_id/approve", wh.Approve, idem)
	e.POST("/requests/:request_id/reject", wh.Reject, idem)
	e.POST("/requests/:request_id/escalate", wh.Escalate, idem)

	e.GET("/users/:user_id/pending", wh.GetPendingForUser)
	e.GET("/entities/:entity_type/:entity_id/requests", wh.ListByEntity)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	addr := ":" + cfg.AppPort
	log.Info().Str("addr", addr).Msg("listening")
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server exited")
	}
}
