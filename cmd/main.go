package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/glossly/booking-service/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/glossly/booking-service/internal/api/handlers/complete_booking"
	confirmBookingHandler "github.com/glossly/booking-service/internal/api/handlers/confirm_booking"
	createBookingHandler "github.com/glossly/booking-service/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/glossly/booking-service/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/glossly/booking-service/internal/api/handlers/get_booking"
	getClientBookingsHandler "github.com/glossly/booking-service/internal/api/handlers/get_client_bookings"
	getProviderBookingsHandler "github.com/glossly/booking-service/internal/api/handlers/get_provider_bookings"
	markNoShowHandler "github.com/glossly/booking-service/internal/api/handlers/mark_no_show"
	paymentEventsHandler "github.com/glossly/booking-service/internal/api/handlers/payment_events"
	requestRescheduleHandler "github.com/glossly/booking-service/internal/api/handlers/request_reschedule"
	rescheduleBookingHandler "github.com/glossly/booking-service/internal/api/handlers/reschedule_booking"
	respondRescheduleHandler "github.com/glossly/booking-service/internal/api/handlers/respond_reschedule"
	runAutoDeclineHandler "github.com/glossly/booking-service/internal/api/handlers/run_auto_decline"
	"github.com/glossly/booking-service/internal/api/middleware"
	"github.com/glossly/booking-service/internal/config"
	"github.com/glossly/booking-service/internal/domain"
	"github.com/glossly/booking-service/internal/infra/events"
	bookingRepo "github.com/glossly/booking-service/internal/infra/storage/booking"
	paymentEventRepo "github.com/glossly/booking-service/internal/infra/storage/paymentevent"
	rescheduleRepo "github.com/glossly/booking-service/internal/infra/storage/reschedule"
	"github.com/glossly/booking-service/internal/infra/sweeplock"
	paymentsClient "github.com/glossly/booking-service/internal/integrations/payments"
	providerConfigClient "github.com/glossly/booking-service/internal/integrations/providerconfig"
	bookingsService "github.com/glossly/booking-service/internal/service/bookings"
	paymentsService "github.com/glossly/booking-service/internal/service/payments"
	rescheduleService "github.com/glossly/booking-service/internal/service/reschedule"
	autoDeclineUC "github.com/glossly/booking-service/internal/usecase/auto_decline"
	createBookingUC "github.com/glossly/booking-service/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/glossly/booking-service/internal/usecase/get_available_slots"
	"github.com/glossly/booking-service/pkg/dbmetrics"
	"github.com/glossly/booking-service/pkg/logger"
	"github.com/glossly/booking-service/pkg/metrics"
	"github.com/glossly/booking-service/pkg/txmanager"
)

// eventPublisher общий интерфейс kafka и noop publisher-ов
type eventPublisher interface {
	PublishAsync(event domain.DomainEvent)
	Close() error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting booking-service...")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db)
	}

	// Redis для блокировки sweeper-а
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	sweepInterval := time.Duration(cfg.Booking.SweepIntervalMinutes) * time.Minute
	sweepLock := sweeplock.New(redisClient, sweepInterval)

	// Kafka publisher доменных событий
	var publisher eventPublisher
	if cfg.Kafka.Enabled {
		publisher = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log, metricsCollector)
		log.Info("Kafka publisher initialized (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		publisher = events.NewNoopPublisher(log)
		log.Info("Kafka disabled, domain events will only be logged")
	}
	defer publisher.Close()

	// Интеграционные клиенты
	providerClient := providerConfigClient.NewClient(
		cfg.ProviderService.URL,
		time.Duration(cfg.ProviderService.Timeout)*time.Second,
		log,
	)
	payClient := paymentsClient.NewClient(
		cfg.PaymentService.URL,
		time.Duration(cfg.PaymentService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (ProviderService=%s, PaymentService=%s)",
		cfg.ProviderService.URL, cfg.PaymentService.URL)

	// Репозитории и транзакции
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	rescheduleRepository := rescheduleRepo.NewRepository(wrappedDB)
	paymentEventRepository := paymentEventRepo.NewRepository(wrappedDB)
	txManager := txmanager.NewTransactionManager(wrappedDB)

	transitionParams := domain.TransitionParams{
		NoShowGraceMinutes:   cfg.Booking.NoShowGraceMinutes,
		ConfirmationSLAHours: cfg.Booking.ConfirmationSLAHours,
	}

	// Сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		providerClient,
		payClient,
		publisher,
		txManager,
		transitionParams,
		log,
	)
	rescheduleSvc := rescheduleService.NewService(
		bookingRepository,
		rescheduleRepository,
		providerClient,
		publisher,
		txManager,
		log,
	)
	paymentsSvc := paymentsService.NewService(
		bookingRepository,
		paymentEventRepository,
		providerClient,
		publisher,
		txManager,
		log,
	)

	// Use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		providerClient,
		payClient,
		publisher,
		txManager,
		createBookingUC.PricingConfig{
			ServiceFeePercent: cfg.Booking.ServiceFeePercent,
			DefaultCurrency:   cfg.Booking.DefaultCurrency,
		},
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		bookingRepository,
		providerClient,
		log,
	)
	autoDeclineUseCase := autoDeclineUC.NewUseCase(
		bookingRepository,
		payClient,
		publisher,
		txManager,
		cfg.Booking.ConfirmationSLAHours,
		log,
	)

	// Handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getClientBookings := getClientBookingsHandler.NewHandler(bookingSvc, log)
	getProviderBookings := getProviderBookingsHandler.NewHandler(bookingSvc, log)
	confirmBooking := confirmBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	completeBooking := completeBookingHandler.NewHandler(bookingSvc, log)
	markNoShow := markNoShowHandler.NewHandler(bookingSvc, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(bookingSvc, log)
	requestReschedule := requestRescheduleHandler.NewHandler(rescheduleSvc, log)
	respondReschedule := respondRescheduleHandler.NewHandler(rescheduleSvc, log)
	paymentEvents := paymentEventsHandler.NewHandler(paymentsSvc, log)
	runAutoDecline := runAutoDeclineHandler.NewHandler(autoDeclineUseCase, log)

	// Роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// Публичные маршруты
	api.HandleFunc("/providers/{providerId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Внутренние маршруты (платежный сервис и операционные запуски,
	// закрыты на уровне сети)
	api.HandleFunc("/payments/events", paymentEvents.Handle).Methods(http.MethodPost)
	api.HandleFunc("/internal/sweeps/auto-decline", runAutoDecline.Handle).Methods(http.MethodPost)

	// Маршруты, требующие аутентификации через gateway
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(log))

	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", getClientBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/no-show", markNoShow.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/reschedule", rescheduleBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/reschedule-request", requestReschedule.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reschedule-requests/{requestId}/respond", respondReschedule.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/providers/{providerId}/bookings", getProviderBookings.Handle).Methods(http.MethodGet)

	// Фоновый sweeper неподтвержденных броней
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	go runSweeper(sweeperCtx, autoDeclineUseCase, sweepLock, sweepInterval, metricsCollector, log)

	// HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	stopSweeper()
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// runSweeper периодически запускает auto-decline sweep. Блокировка в
// Redis не дает нескольким инстансам сервиса делать одну работу дважды.
func runSweeper(ctx context.Context, uc *autoDeclineUC.UseCase, lock *sweeplock.Lock, interval time.Duration, m *metrics.Metrics, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Auto-decline sweeper started (interval=%s)", interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("Auto-decline sweeper stopped")
			return
		case <-ticker.C:
			acquired, err := lock.TryAcquire(ctx)
			if err != nil {
				log.Error("Sweeper: failed to acquire lock: %v", err)
				continue
			}
			if !acquired {
				log.Info("Sweeper: another instance is sweeping, skipping this run")
				continue
			}

			result, err := uc.Execute(ctx)
			if err != nil {
				log.Error("Sweeper: sweep failed: %v", err)
			} else {
				log.Info("Sweeper: candidates=%d, declined=%d, skipped=%d, failed=%d",
					result.CandidateCount, result.DeclinedCount, result.SkippedCount, len(result.FailedIDs))
				if m != nil {
					m.SweepBookingsTotal.WithLabelValues("declined").Add(float64(result.DeclinedCount))
					m.SweepBookingsTotal.WithLabelValues("skipped").Add(float64(result.SkippedCount))
					m.SweepBookingsTotal.WithLabelValues("failed").Add(float64(len(result.FailedIDs)))
				}
			}

			if err := lock.Release(ctx); err != nil {
				log.Warn("Sweeper: failed to release lock: %v", err)
			}
		}
	}
}
