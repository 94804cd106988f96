package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/simplycrm/simplycrm/pkg/api"
	"github.com/simplycrm/simplycrm/pkg/audit"
	"github.com/simplycrm/simplycrm/pkg/auth"
	"github.com/simplycrm/simplycrm/pkg/config"
	"github.com/simplycrm/simplycrm/pkg/contacts"
	"github.com/simplycrm/simplycrm/pkg/kv"
	"github.com/simplycrm/simplycrm/pkg/observability"
	"github.com/simplycrm/simplycrm/pkg/orgs"
	"github.com/simplycrm/simplycrm/pkg/session"
	"github.com/simplycrm/simplycrm/pkg/shield"

	"github.com/prometheus/client_golang/prometheus"
)

const directoryCacheSize = 1024

func main() {
	addr := flag.String("addr", "", "Listen address, overriding SIMPLYCRM_HOST/PORT")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	store, err := kv.NewRedisStore(cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer store.Close()
	log.WithField("url", cfg.Redis.URL).Info("connected to redis")

	var dir orgs.Directory
	var contactRepo contacts.Repository
	var recorder audit.Recorder
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			log.WithError(err).Fatal("failed to open postgres")
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Postgres.MaxConns)
		if err := db.Ping(); err != nil {
			log.WithError(err).Fatal("failed to ping postgres")
		}
		log.Info("connected to postgres")

		cached, err := orgs.NewCachedDirectory(orgs.NewPostgresDirectory(db), directoryCacheSize)
		if err != nil {
			log.WithError(err).Fatal("failed to build directory cache")
		}
		dir = cached
		contactRepo = contacts.NewPostgresRepository(db)
		recorder, err = audit.NewPostgresRecorder(db)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize audit recorder")
		}
	} else {
		// Local development without a database.
		log.Warn("SIMPLYCRM_POSTGRES_URL not set, using in-memory directory")
		dir = orgs.NewMemoryDirectory()
		contactRepo = contacts.NewMemoryRepository()
		recorder = audit.NewLogRecorder(logger)
	}

	sessions := session.NewManager(store, session.Config{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
	}, logger)

	server := api.NewServer(api.Options{
		Sessions:      sessions,
		Directory:     dir,
		Contacts:      contactRepo,
		Authenticator: auth.NewAuthenticator(dir, store, cfg.Login, logger, metrics),
		Tokens:        auth.NewMemoryTokenRegistry(),
		Shield:        shield.New(store, config.ShieldConfigFromEnv, logger, metrics),
		Audit:         recorder,
		Logger:        logger,
		Metrics:       metrics,
	})

	listen := *addr
	if listen == "" {
		listen = cfg.Server.Host + ":" + cfg.Server.Port
	}
	httpServer := &http.Server{
		Addr:         listen,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", listen).Info("simplycrm listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
