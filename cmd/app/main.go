package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/tsel-ticketmaster/tm-registration/config"
	adminapp_registration "github.com/tsel-ticketmaster/tm-registration/internal/module/adminapp/registration"
	adminapp_stats "github.com/tsel-ticketmaster/tm-registration/internal/module/adminapp/stats"
	customerapp_event "github.com/tsel-ticketmaster/tm-registration/internal/module/customerapp/event"
	"github.com/tsel-ticketmaster/tm-registration/internal/module/customerapp/notification"
	customerapp_realtime "github.com/tsel-ticketmaster/tm-registration/internal/module/customerapp/realtime"
	customerapp_registration "github.com/tsel-ticketmaster/tm-registration/internal/module/customerapp/registration"
	customerapp_ticket "github.com/tsel-ticketmaster/tm-registration/internal/module/customerapp/ticket"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/jwt"
	internalMiddleare "github.com/tsel-ticketmaster/tm-registration/internal/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-registration/internal/pkg/session"
	"github.com/tsel-ticketmaster/tm-registration/pkg/applogger"
	"github.com/tsel-ticketmaster/tm-registration/pkg/kafka"
	"github.com/tsel-ticketmaster/tm-registration/pkg/middleware"
	"github.com/tsel-ticketmaster/tm-registration/pkg/monitoring"
	"github.com/tsel-ticketmaster/tm-registration/pkg/postgresql"
	"github.com/tsel-ticketmaster/tm-registration/pkg/pubsub"
	"github.com/tsel-ticketmaster/tm-registration/pkg/realtime"
	"github.com/tsel-ticketmaster/tm-registration/pkg/redis"
	"github.com/tsel-ticketmaster/tm-registration/pkg/server"
	"github.com/tsel-ticketmaster/tm-registration/pkg/validator"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

var c *config.Config

func init() {
	c = config.Get()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := applogger.GetLogrus()

	mon := monitoring.NewOpenTelemetry(
		c.Application.Name,
		c.Application.Environment,
		c.Monitoring.OTLPEndpoint,
	)

	mon.Start(ctx)

	validate := validator.Get()

	jsonWebToken := jwt.NewJSONWebToken(c.JWT.PrivateKey, c.JWT.PublicKey)

	psqldb := postgresql.GetDatabase()
	if err := psqldb.Ping(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	publisher := pubsub.PublisherFromConfluentKafkaProducer(logger, kafka.NewProducer())

	rc := redis.GetClient()
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	sessionStore := session.NewRedisSessionStore(logger, rc)

	customerSessionMiddleware := internalMiddleare.NewCustomerSessionMiddleware(jsonWebToken, sessionStore)
	adminSessionMiddleware := internalMiddleare.NewAdminSessionMiddleware(jsonWebToken, sessionStore)

	hub := realtime.NewHub(logger)

	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(c.Application.Name),
		middleware.HTTPResponseTraceInjection,
		middleware.NewHTTPRequestLogger(logger, c.Application.Debug, http.StatusInternalServerError).Middleware,
	)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// customer's app
	notificationRepo := notification.NewNotificationRepository(logger, psqldb)
	notificationUseCase := notification.NewNotificationUseCase(notification.NotificationUseCaseProperty{
		Logger:                 logger,
		Timeout:                c.Application.Timeout,
		NotificationRepository: notificationRepo,
		Hub:                    hub,
	})
	notification.InitHTTPHandler(router, customerSessionMiddleware, validate, notificationUseCase)

	customerappEventRepo := customerapp_event.NewEventRepository(logger, psqldb)
	customerappEventUseCase := customerapp_event.NewEventUseCase(customerapp_event.EventUseCaseProperty{
		Logger:          logger,
		Timeout:         c.Application.Timeout,
		EventRepository: customerappEventRepo,
	})
	customerapp_event.InitHTTPHandler(router, customerSessionMiddleware, validate, customerappEventUseCase)

	customerappRegistrationRepo := customerapp_registration.NewRegistrationRepository(logger, psqldb)
	customerappRegistrationUseCase := customerapp_registration.NewRegistrationUseCase(customerapp_registration.RegistrationUseCaseProperty{
		Logger:                 logger,
		Timeout:                c.Application.Timeout,
		EventRepository:        customerappEventRepo,
		RegistrationRepository: customerappRegistrationRepo,
		NotificationUseCase:    notificationUseCase,
		Publisher:              publisher,
	})
	customerapp_registration.InitHTTPHandler(router, customerSessionMiddleware, validate, customerappRegistrationUseCase)

	customerappTicketRepo := customerapp_ticket.NewTicketRepository(logger, psqldb)
	customerappTicketUseCase := customerapp_ticket.NewTicketUseCase(customerapp_ticket.TicketUseCaseProperty{
		Logger:           logger,
		Timeout:          c.Application.Timeout,
		TicketRepository: customerappTicketRepo,
	})
	customerapp_ticket.InitHTTPHandler(router, customerSessionMiddleware, validate, customerappTicketUseCase)

	customerapp_realtime.InitHTTPHandler(router, customerSessionMiddleware, logger, hub)

	// admin's app
	adminappEventRepo := adminapp_registration.NewEventRepository(logger, psqldb)
	adminappRegistrationRepo := adminapp_registration.NewRegistrationRepository(logger, psqldb)
	adminappRegistrationUseCase := adminapp_registration.NewRegistrationUseCase(adminapp_registration.RegistrationUseCaseProperty{
		Logger:                 logger,
		Timeout:                c.Application.Timeout,
		RegistrationRepository: adminappRegistrationRepo,
		EventRepository:        adminappEventRepo,
		NotificationUseCase:    notificationUseCase,
		TicketCodec:            jsonWebToken,
		Publisher:              publisher,
		Hub:                    hub,
	})
	adminapp_registration.InitHTTPHandler(router, adminSessionMiddleware, validate, adminappRegistrationUseCase)

	statsRepo := adminapp_stats.NewStatsRepository(logger, psqldb)
	statsUseCase := adminapp_stats.NewStatsUseCase(adminapp_stats.StatsUseCaseProperty{
		Logger:          logger,
		Timeout:         c.Application.Timeout,
		StatsRepository: statsRepo,
	})
	statsBroadcaster := adminapp_stats.NewBroadcaster(adminapp_stats.BroadcasterProperty{
		Logger:       logger,
		Interval:     c.Stats.BroadcastInterval,
		StatsUseCase: statsUseCase,
		Hub:          hub,
	})

	go statsBroadcaster.Run(ctx)

	handler := middleware.SetChain(
		router,
		cors.New(cors.Options{
			AllowedOrigins:   c.CORS.AllowedOrigins,
			AllowedMethods:   c.CORS.AllowedMethods,
			AllowedHeaders:   c.CORS.AllowedHeaders,
			ExposedHeaders:   c.CORS.ExposedHeaders,
			MaxAge:           c.CORS.MaxAge,
			AllowCredentials: c.CORS.AllowCredentials,
		}).Handler,
	)

	srv := &server.Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", c.Application.Port),
			Handler: handler,
		},
		Logger: logger,
	}

	go func() {
		srv.ListenAndServe()
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	// The app context only stops background workers; draining the server and
	// flushing traces need a context that is still alive.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), c.Application.Timeout)
	defer shutdownCancel()

	cancel()
	srv.Shutdown(shutdownCtx)
	publisher.Close()
	psqldb.Close()
	rc.Close()
	mon.Stop(shutdownCtx)
}
