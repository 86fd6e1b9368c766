package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// 两块互相独立的持久化区域，分别由各自的重置动作清空，绝不共用
const (
	RegionSession = "session"
	RegionDraft   = "draft"
)

const schema = `
CREATE TABLE IF NOT EXISTS regions (
	name TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Store 是本地持久化存储，进程重启后状态从这里恢复
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("存储路径不能为空")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开本地存储失败: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("连接本地存储失败: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("初始化本地存储失败: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load 读取一个区域并反序列化到 v，区域不存在时返回 false
func (s *Store) Load(region string, v any) (bool, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM regions WHERE name = ?`, region).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}

	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, fmt.Errorf("区域 %s 的数据损坏: %w", region, err)
	}
	return true, nil
}

// Save 整体覆盖写入一个区域
func (s *Store) Save(region string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO regions (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		region, string(data), time.Now().UnixMilli())
	return err
}

// Clear 删除一个区域，只影响该区域自身
func (s *Store) Clear(region string) error {
	_, err := s.db.Exec(`DELETE FROM regions WHERE name = ?`, region)
	return err
}
