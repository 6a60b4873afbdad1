package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appconfig "coinbasepro/config"
	"coinbasepro/feed"
	"coinbasepro/logger"
	"coinbasepro/recorder"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := appconfig.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.API.Environment,
	}).Info("starting coinbase feed")

	if cfg.Recorder.Enabled {
		logger.InitCloudWatch(cfg.Recorder.S3.Region, "")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	creds := loadCredentials(cfg, log)

	session := feed.NewSession(cfg, creds)
	if err := session.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start feed session")
		os.Exit(1)
	}

	var rec *recorder.S3Recorder
	if cfg.Recorder.Enabled {
		rec, err = recorder.NewS3Recorder(cfg, session.Buffer())
		if err != nil {
			session.End()
			log.WithError(err).Error("failed to create s3 recorder")
			os.Exit(1)
		}
		if err := rec.Start(ctx); err != nil {
			session.End()
			log.WithError(err).Error("failed to start s3 recorder")
			os.Exit(1)
		}
	} else {
		log.WithComponent("main").Info("recorder disabled; messages are buffered in memory only")
	}

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()

	done := make(chan struct{})
	go func() {
		session.End()
		if rec != nil {
			rec.Stop()
		}
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("coinbase feed stopped")
}

// loadCredentials resolves API credentials from the configured file,
// falling back to the environment. A missing credential set is not
// fatal: the feed falls back to an unauthenticated subscription.
func loadCredentials(cfg *appconfig.Config, log *logger.Log) appconfig.Credentials {
	if cfg.API.CredentialsFile != "" {
		creds, err := appconfig.LoadCredentials(cfg.API.CredentialsFile)
		if err != nil {
			log.WithError(err).Error("failed to load credentials file")
			os.Exit(1)
		}
		return creds
	}

	creds, err := appconfig.CredentialsFromEnv()
	if err != nil {
		log.WithComponent("main").Info("no credentials configured, subscribing unauthenticated")
		return appconfig.Credentials{}
	}
	return creds
}
