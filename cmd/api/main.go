package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bouncehire/rentals/internal/app"
	"github.com/bouncehire/rentals/internal/clock"
	"github.com/bouncehire/rentals/internal/config"
	"github.com/bouncehire/rentals/internal/notify"
	"github.com/bouncehire/rentals/internal/storage/postgres"
	transporthttp "github.com/bouncehire/rentals/internal/transport/http"
	"github.com/bouncehire/rentals/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "rentals-api").Logger()

	cfg, loaded, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if !loaded {
		logger.Warn().Str("path", *configPath).Msg("config file not found, using defaults and env")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal().Err(err).Msg("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	var notifier notify.Notifier = notify.NoopNotifier{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := kafkaNotifier.Close(); err != nil {
				logger.Error().Err(err).Msg("close kafka writer")
			}
		}()
		notifier = kafkaNotifier
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka notifications enabled")
	} else {
		logger.Warn().Msg("no kafka brokers configured, booking events disabled")
	}

	clk := clock.NewSystem()
	inventoryRepo := postgres.NewInventoryRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)

	availabilitySvc := app.NewAvailabilityService(inventoryRepo)
	reservationSvc := app.NewReservationService(inventoryRepo, logger)
	bookingSvc := app.NewBookingService(
		bookingRepo, catalogRepo, reservationSvc, notifier,
		clk, cfg.Pricing, cfg.Booking.NumberPrefix, logger,
	)
	adminSvc := app.NewAdminService(inventoryRepo, catalogRepo, logger)
	sweeper := app.NewSweeper(bookingRepo, reservationSvc, clk, cfg.Booking.PendingTimeout.Std(), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/availability", transporthttp.HandleAvailability(availabilitySvc))
	mux.Handle("/availability/calendar", transporthttp.HandleAvailabilityCalendar(availabilitySvc))
	mux.Handle("/bookings", transporthttp.HandleCreateBooking(bookingSvc))
	mux.Handle("/bookings/", transporthttp.HandleBooking(bookingSvc))
	mux.Handle("/admin/units", transporthttp.HandleAdminUnits(adminSvc))
	mux.Handle("/admin/units/", transporthttp.HandleAdminUnitStatus(adminSvc))
	mux.Handle("/admin/products", transporthttp.HandleAdminProducts(adminSvc))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(
		transporthttp.CORS(cfg.CORSOrigins, transporthttp.WithIdentity(mux)),
		logger,
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(stopCtx)
	group.Go(func() error {
		logger.Info().Str("port", cfg.Port).Msg("api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := sweeper.Run(groupCtx, cfg.Booking.SweepInterval.Std())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}
