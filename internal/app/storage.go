// Package app wires configured collaborators shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/config"
	"github.com/mamadbah2/shopledger/internal/repository"
	"github.com/mamadbah2/shopledger/internal/repository/file"
	"github.com/mamadbah2/shopledger/internal/repository/memory"
	"github.com/mamadbah2/shopledger/internal/repository/mongodb"
	"github.com/mamadbah2/shopledger/internal/repository/postgres"
	"github.com/mamadbah2/shopledger/internal/repository/redis"
	"github.com/mamadbah2/shopledger/internal/repository/sheets"
	"github.com/mamadbah2/shopledger/internal/scheduler"
	whatsappsvc "github.com/mamadbah2/shopledger/internal/service/whatsapp"
	"github.com/mamadbah2/shopledger/pkg/clients/whatsapp"
)

// Storage holds the opened persistence collaborators.
type Storage struct {
	Gateway  *repository.Gateway
	Archives map[string]scheduler.Archive

	mongo *mongodb.MongoDBRepository
}

// OpenStorage connects the configured state backend. Report archives are
// only opened when withArchives is set.
func OpenStorage(ctx context.Context, cfg *config.Config, withArchives bool, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Storage{Archives: make(map[string]scheduler.Archive)}

	store, err := s.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.Gateway = repository.NewGateway(store, logger.Named("repo.gateway"))
	logger.Info("storage backend ready", zap.String("backend", cfg.Storage.Backend))

	if !withArchives {
		return s, nil
	}
	for _, name := range cfg.Reporting.Archives {
		archive, err := s.openArchive(ctx, cfg, name, logger)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.Archives[name] = archive
		logger.Info("report archive enabled", zap.String("archive", name))
	}
	return s, nil
}

// Close releases the state backend and a Mongo connection shared with the
// report archive.
func (s *Storage) Close(ctx context.Context) error {
	var errs []error
	if s.Gateway != nil {
		errs = append(errs, s.Gateway.Close(ctx))
	}
	if s.mongo != nil {
		errs = append(errs, s.mongo.Close(ctx))
	}
	return errors.Join(errs...)
}

func (s *Storage) openStore(ctx context.Context, cfg *config.Config) (repository.KeyValueStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil
	case config.BackendFile:
		store, err := file.NewStore(cfg.Storage.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendRedis:
		store, err := redis.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMongoDB:
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			return nil, err
		}
		s.mongo = repo
		return nopCloser{repo}, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

func (s *Storage) openArchive(ctx context.Context, cfg *config.Config, name string, logger *zap.Logger) (scheduler.Archive, error) {
	switch name {
	case config.ArchiveMongoDB:
		if s.mongo != nil {
			return s.mongo, nil
		}
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			return nil, err
		}
		s.mongo = repo
		return repo, nil
	case config.ArchiveSheets:
		sheetsLogger := logger.Named("repo.sheets")
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, sheetsLogger)
		if err != nil {
			return nil, err
		}
		return sheets.NewReportArchive(repo, sheetsLogger), nil
	case config.ArchiveWhatsApp:
		return whatsappsvc.NewReportNotifier(whatsapp.NewClient(cfg.WhatsApp), cfg.WhatsApp.ReportRecipient, cfg.Reporting.Currency), nil
	default:
		return nil, fmt.Errorf("unsupported report archive %q", name)
	}
}

// nopCloser leaves closing the shared Mongo client to Storage.Close.
type nopCloser struct {
	*mongodb.MongoDBRepository
}

func (nopCloser) Close(context.Context) error { return nil }
