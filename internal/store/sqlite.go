// 包 store 提供存储实现（SQLite）：
// - 内容快照：最近一次成功聚合的整站数据，源站故障时兜底回放
// - kv 表：少量持久状态（如记住的天气城市）
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"go-notion-nav/internal/model"
)

// Store 封装 *sqlx.DB，基于 modernc.org/sqlite（纯 Go 实现）。
type Store struct {
	db *sqlx.DB
}

// Open 打开 SQLite 数据库并执行自动迁移。
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// migrate 执行建表语句，保持幂等。
func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshot (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            data TEXT NOT NULL,
            fetched_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS kv (
            k TEXT PRIMARY KEY,
            v TEXT NOT NULL
        );`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

// SaveSnapshot 覆盖保存最近一次成功聚合的内容。
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO snapshot(id, data, fetched_at) VALUES(1,?,?)
        ON CONFLICT(id) DO UPDATE SET data=excluded.data, fetched_at=excluded.fetched_at`,
		string(b), snap.FetchedAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot 读取快照；不存在时返回 (nil, nil)。
func (s *Store) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT data FROM snapshot WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// cityKey 为记住的天气城市使用的固定存储键。
const cityKey = "weatherCity"

// StoredCity 读取记住的城市；空串表示走自动定位。
func (s *Store) StoredCity(ctx context.Context) (string, error) {
	return s.GetKV(ctx, cityKey)
}

// StoreCity 记住用户显式选择的城市。
func (s *Store) StoreCity(ctx context.Context, city string) error {
	return s.SetKV(ctx, cityKey, city)
}

// ForgetCity 清除记住的城市，之后恢复自动定位。
func (s *Store) ForgetCity(ctx context.Context) error {
	return s.DeleteKV(ctx, cityKey)
}

// SetKV 写入持久键值。
func (s *Store) SetKV(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO kv(k, v) VALUES(?,?)
        ON CONFLICT(k) DO UPDATE SET v=excluded.v`, key, value)
	if err != nil {
		return fmt.Errorf("set kv %s: %w", key, err)
	}
	return nil
}

// GetKV 读取持久键值；缺失时返回空串。
func (s *Store) GetKV(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.GetContext(ctx, &v, `SELECT v FROM kv WHERE k = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get kv %s: %w", key, err)
	}
	return v, nil
}

// DeleteKV 删除持久键值。
func (s *Store) DeleteKV(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}
