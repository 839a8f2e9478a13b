package app

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lendhub/lending-service/lending/config"
	"github.com/lendhub/lending-service/lending/internal/handler"
	"github.com/lendhub/lending-service/lending/internal/repository"
	"github.com/lendhub/lending-service/lending/internal/server"
	"github.com/lendhub/lending-service/lending/internal/service"
	"github.com/lendhub/lending-service/lending/migrations"
	"github.com/lendhub/lending-service/pkg/kafka"
	"github.com/lendhub/lending-service/pkg/logger"
	"github.com/lendhub/lending-service/pkg/postgres"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "lending")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	finePerDay, err := decimal.NewFromString(cfg.Lending.FinePerDay)
	if err != nil {
		log.Fatal("fine per day", zap.Error(err))
	}

	var events service.Enqueuer
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		// loan events are best-effort; lending works without a broker
		log.Warn("kafka producer unavailable", zap.Error(err))
	} else {
		events = handler.NewEnqueuer(producer)
	}

	svc := service.NewService(repo, repo, repo, events, finePerDay, log)

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))

	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		log.Error("server run", zap.Error(err))
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("producer.Close", zap.Error(err))
		}
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
