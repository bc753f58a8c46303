package persistence

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/relaydesk/relaybot/internal/domain/repository"
	"github.com/relaydesk/relaybot/internal/infrastructure/config"
)

// Repositories 仓储集合
type Repositories struct {
	Users      repository.UserRepository
	History    repository.HistoryRepository
	Bans       repository.BanRepository
	Broadcasts repository.BroadcastRepository
	Mappings   repository.MappingRepository

	close func() error
}

// NewRepositories picks the backend named by cfg.Type.
func NewRepositories(cfg config.StorageConfig, logger *zap.Logger) (*Repositories, error) {
	switch cfg.Type {
	case "", "json":
		return NewJSONRepositories(cfg.Dir, cfg.MaxForwardMappings, logger)
	case "sqlite", "postgres":
		db, err := NewDBConnection(cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewGormRepositories(db, cfg.MaxForwardMappings), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// NewJSONRepositories 创建基于 JSON 文档的仓储
func NewJSONRepositories(dir string, maxForwards int, logger *zap.Logger) (*Repositories, error) {
	store, err := NewDocumentStore(dir, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Users:      NewJSONUserRepository(store),
		History:    NewJSONHistoryRepository(store),
		Bans:       NewJSONBanRepository(store),
		Broadcasts: NewJSONBroadcastRepository(store),
		Mappings:   NewJSONMappingRepository(store, maxForwards),
	}, nil
}

// NewGormRepositories 创建基于 GORM 的仓储
func NewGormRepositories(db *gorm.DB, maxForwards int) *Repositories {
	return &Repositories{
		Users:      NewGormUserRepository(db),
		History:    NewGormHistoryRepository(db),
		Bans:       NewGormBanRepository(db),
		Broadcasts: NewGormBroadcastRepository(db),
		Mappings:   NewGormMappingRepository(db, maxForwards),
		close: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// Close releases the database connection, if any.
func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}
