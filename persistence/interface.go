// persistence/interface.go
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/spyserver/config"
	"github.com/wfunc/spyserver/models"
)

// Database 已结束游戏的归档存储
type Database interface {
	SaveGameRecord(ctx context.Context, record *models.GameRecord) error
	// RecentGameRecords returns at most limit records, newest first.
	RecentGameRecords(ctx context.Context, limit int) ([]*models.GameRecord, error)
	Close() error
}

// 错误定义
var (
	ErrClosed        = errors.New("database closed")
	ErrUnknownDriver = errors.New("unknown database driver")
)

const DefaultMemoryCapacity = 200

// Open 根据配置选择归档后端，未启用数据库时使用内存
func Open(cfg config.DatabaseConfig) (Database, error) {
	if !cfg.Enabled {
		return NewMemory(DefaultMemoryCapacity), nil
	}

	pg := cfg.Postgres
	switch cfg.Driver {
	case "gorm", "":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "sql", "postgres":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func dsn(host string, port int, user, password, dbname string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}
