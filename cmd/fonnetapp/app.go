package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/fonnet/fonnetapp/internal/config"
	"github.com/fonnet/fonnetapp/internal/drive"
	"github.com/fonnet/fonnetapp/internal/mail"
	"github.com/fonnet/fonnetapp/internal/repository"
	"github.com/fonnet/fonnetapp/internal/service"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openDatabase connects and brings the schema up to date.
func openDatabase(ctx context.Context, cfg config.Database) (*sqlx.DB, error) {
	db, err := repository.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newDriveStore(ctx context.Context, cfg config.Drive) (drive.Store, error) {
	if cfg.Backend == config.DriveBackendGoogle {
		return drive.NewGoogleDrive(ctx, cfg.CredentialsFile, cfg.SharedDriveID)
	}
	return drive.NewMemoryStore(), nil
}

func newMailer(cfg config.Mail, logger *slog.Logger) mail.Sender {
	if cfg.SMTPHost == "" {
		return mail.LogSender{Logger: logger}
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}

// services holds the application services built from one configuration.
type services struct {
	tasks     *service.TaskService
	projects  *service.ProjectService
	providers *service.ProviderService
	taskRepo  *repository.TaskRepository
}

func newServices(ctx context.Context, cfg *config.Config, db *sqlx.DB, logger *slog.Logger) (*services, error) {
	store, err := newDriveStore(ctx, cfg.Drive)
	if err != nil {
		return nil, err
	}
	folders := drive.NewProvisioner(store, cfg.Drive.RootFolderID, logger,
		drive.WithFolderCache(cfg.Drive.FolderCacheSize, cfg.Drive.FolderCacheTTL),
	)

	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	return &services{
		tasks:    service.NewTaskService(taskRepo, projectRepo, logger),
		projects: service.NewProjectService(projectRepo, repository.NewCommentRepository(db), logger),
		providers: service.NewProviderService(
			repository.NewProviderRepository(db),
			folders,
			newMailer(cfg.Mail, logger),
			cfg.Mail.NotifyTo,
			logger,
		),
		taskRepo: taskRepo,
	}, nil
}
