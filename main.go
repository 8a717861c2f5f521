package main

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"order-realtime/internal/aging"
	"order-realtime/internal/auth"
	"order-realtime/internal/config"
	"order-realtime/internal/db"
	"order-realtime/internal/events"
	"order-realtime/internal/grpcserver"
	"order-realtime/internal/logging"
	"order-realtime/internal/observability"
	"order-realtime/internal/rabbitmq"
	"order-realtime/internal/repositories"
	"order-realtime/internal/router"
	"order-realtime/internal/session"
	"order-realtime/internal/telemetry"
	"order-realtime/internal/ws"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Warn().Err(err).Msg("otel disabled")
		shutdownOTel = func(context.Context) error { return nil }
	}

	verifier, err := auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build credential verifier")
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.EventsExchange)
	defer publisher.Close()
	log.Info().
		Str("mode", rabbitmq.PublisherMode(publisher)).
		Str("noop_reason", rabbitmq.PublisherNoopReason(publisher)).
		Msg("lifecycle publisher ready")
	audit := telemetry.NewAuditEmitter(publisher, "audit."+cfg.ServiceName, cfg.ServiceName, cfg.Environment)

	gateway := ws.NewGateway(ws.NewHub(), session.NewClassifier(verifier), ws.Options{
		Namespace:      cfg.WS.Path,
		AllowedOrigins: cfg.AllowedOrigins,
		SendBuffer:     cfg.WS.SendBuffer,
		MessageRPS:     cfg.WS.MessageRPS,
		MessageBurst:   cfg.WS.MessageBurst,
		PingPeriod:     cfg.WS.PingPeriod,
		PongWait:       cfg.WS.PongWait,
		WriteWait:      cfg.WS.WriteDeadline,
		Publisher:      publisher,
	})
	dispatcher := events.NewDispatcher(gateway)

	var grpcSrv *grpcserver.Server
	if cfg.GRPCPort != "" {
		grpcSrv = grpcserver.New()
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			log.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("failed to listen for grpc")
		}
		go func() {
			log.Info().Str("port", cfg.GRPCPort).Msg("grpc health server listening")
			if err := grpcSrv.Serve(lis); err != nil {
				log.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	var monitor *aging.Monitor
	if cfg.DBDSN != "" {
		database, err := db.Connect(ctx, cfg.DBDSN, cfg.DBMigrate)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to db")
		}
		defer database.Close()

		var opts []aging.Option
		if grpcSrv != nil {
			opts = append(opts, aging.WithStateListener(grpcSrv.SetAgingServing))
		}
		monitor = aging.NewMonitor(repositories.NewOrderRepo(database), gateway, cfg.AgingInterval, opts...)
		if err := monitor.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start aging monitor")
		}
	} else {
		log.Warn().Msg("DB_DSN is empty, aging monitor disabled")
	}

	if cfg.AMQP.URL != "" {
		consumer, err := rabbitmq.NewConsumer(cfg.AMQP.URL, cfg.AMQP.OrdersExchange, cfg.AMQP.OrdersQueue)
		if err != nil {
			log.Warn().Err(err).Msg("order event consumer disabled")
		} else {
			defer consumer.Close()
			go func() {
				if err := consumer.Run(ctx, dispatcher.Handle); err != nil {
					log.Error().Err(err).Msg("order event consumer stopped")
				}
			}()
		}
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(cfg, router.Deps{
			Gateway:    gateway,
			Verifier:   verifier,
			Dispatcher: dispatcher,
			Audit:      audit,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Str("ws_path", cfg.WS.Path).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	if monitor != nil {
		monitor.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
}
