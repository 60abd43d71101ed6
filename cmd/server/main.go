// adspotly - QR code and ad-space resolution service
package main

import (
	"context"
	"log"
	"time"

	"adspotly/internal/config"
	"adspotly/internal/domain"
	"adspotly/internal/logger"
	"adspotly/internal/media"
	"adspotly/internal/repository"
	"adspotly/internal/repository/sqlite"
	"adspotly/internal/resolver"
	"adspotly/internal/server"
	"adspotly/internal/templates"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("config.json")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Log.Sync()

	logger.Log.Info("starting",
		zap.String("business", cfg.Business.Name),
		zap.Bool("debug", cfg.Debug))

	db, err := sqlite.New(cfg.GetDatabasePath())
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Log.Info("database initialized", zap.String("path", cfg.GetDatabasePath()))

	repos := &repository.Repositories{
		Users:      sqlite.NewUserRepo(db),
		QrCodes:    sqlite.NewQrCodeRepo(db),
		AdSpaces:   sqlite.NewAdSpaceRepo(db),
		AdDesigns:  sqlite.NewAdDesignRepo(db),
		ScanEvents: sqlite.NewScanEventRepo(db),
	}

	if err := createDefaultAdmin(repos); err != nil {
		logger.Log.Warn("could not create default admin", zap.Error(err))
	}

	tmpl, err := templates.NewManager("./templates")
	if err != nil {
		logger.Log.Fatal("failed to initialize templates", zap.Error(err))
	}
	defer tmpl.Close()

	uploads, err := media.NewStore(cfg.Uploads.Dir, cfg.Uploads.PublicPath, cfg.Uploads.MaxSizeMB)
	if err != nil {
		logger.Log.Fatal("failed to initialize upload store", zap.Error(err))
	}

	probe := media.NewHTTPProber(time.Duration(cfg.Resolver.ProbeTimeoutMs)*time.Millisecond, logger.Log)
	engine := resolver.New(repos, probe, logger.Log)

	srv := server.New(cfg, repos, tmpl, engine, uploads)

	logger.Log.Info("server listening", zap.String("address", cfg.Address()))
	if err := srv.Run(); err != nil {
		logger.Log.Fatal("server error", zap.Error(err))
	}
}

// createDefaultAdmin creates a default admin user if no users exist
func createDefaultAdmin(repos *repository.Repositories) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := repos.Users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	// Password: admin123 (CHANGE IN PRODUCTION!)
	hashedPassword, err := sqlite.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin := &domain.User{
		ID:           uuid.New().String(),
		Email:        "admin@adspotly.local",
		PasswordHash: hashedPassword,
		Name:         "Administrator",
		Role:         domain.RoleAdmin,
	}
	if err := repos.Users.Create(ctx, admin); err != nil {
		return err
	}

	logger.Log.Info("default admin user created",
		zap.String("email", admin.Email))
	logger.Log.Warn("default admin password is admin123, change it in production")

	return nil
}
