package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/billfold/billfold/internal/cache"
	"github.com/billfold/billfold/internal/config"
	"github.com/billfold/billfold/internal/db"
	"github.com/billfold/billfold/internal/logging"
	"github.com/billfold/billfold/internal/mail"
	"github.com/billfold/billfold/internal/server"

	"github.com/joho/godotenv"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	log := logging.New()
	cfg := config.Load()

	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if *migrateOnlyFlag {
		log.Info("migrations completed; exiting as requested")
		return
	}

	c := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	defer func() { _ = c.Close() }()

	smtpPort, _ := strconv.Atoi(cfg.SMTPPort)
	mailer := mail.New(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     smtpPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	}, log)

	handler := server.New(dbConn, c, mailer, log)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).WithField("env", cfg.Env).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
	log.Info("server stopped")
}
