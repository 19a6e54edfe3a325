// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/spyserver/models"
)

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn(host, port, user, password, dbname))
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            room_code VARCHAR(6) NOT NULL,
            category VARCHAR(64) NOT NULL,
            word VARCHAR(64) NOT NULL,
            winner VARCHAR(16) NOT NULL,
            reason VARCHAR(255),
            players JSONB NOT NULL,
            spies JSONB NOT NULL,
            eliminated VARCHAR(64),
            final_votes JSONB,
            rounds INT NOT NULL DEFAULT 1,
            started_at TIMESTAMPTZ,
            finished_at TIMESTAMPTZ NOT NULL,
            duration INT NOT NULL DEFAULT 0
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_game_records_room_code ON game_records(room_code);
        CREATE INDEX IF NOT EXISTS idx_game_records_finished_at ON game_records(finished_at);
    `)
	return err
}

// SaveGameRecord 保存一局游戏记录
func (p *PostgreSQL) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}
	spies, err := json.Marshal(record.Spies)
	if err != nil {
		return err
	}
	votes, err := json.Marshal(record.FinalVotes)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO game_records
            (room_code, category, word, winner, reason, players, spies, eliminated, final_votes, rounds, started_at, finished_at, duration)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id
    `
	var id int64
	err = p.db.QueryRowContext(ctx, query,
		record.RoomCode, record.Category, record.Word, record.Winner, record.Reason,
		players, spies, record.Eliminated, votes, record.Rounds,
		record.StartedAt, record.FinishedAt, int(record.Duration().Seconds()),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert game record: %w", err)
	}
	record.ID = uint(id)
	return nil
}

// RecentGameRecords 按结束时间倒序读取记录
func (p *PostgreSQL) RecentGameRecords(ctx context.Context, limit int) ([]*models.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.db.QueryContext(ctx, `
        SELECT id, room_code, category, word, winner, COALESCE(reason, ''), players, spies,
               COALESCE(eliminated, ''), final_votes, rounds, started_at, finished_at
        FROM game_records
        ORDER BY finished_at DESC, id DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.GameRecord
	for rows.Next() {
		var (
			r                     models.GameRecord
			players, spies, votes []byte
			startedAt             sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.RoomCode, &r.Category, &r.Word, &r.Winner, &r.Reason,
			&players, &spies, &r.Eliminated, &votes, &r.Rounds, &startedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(players, &r.Players); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(spies, &r.Spies); err != nil {
			return nil, err
		}
		if len(votes) > 0 {
			if err := json.Unmarshal(votes, &r.FinalVotes); err != nil {
				return nil, err
			}
		}
		if startedAt.Valid {
			r.StartedAt = startedAt.Time
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
