// Package storage はローカルデバイス上のキーバリュー永続化ブリッジを提供する。
//
// ブリッジはBadgerDBによる永続ストレージを第一候補とし、オープンまたは
// 書き込みプローブに失敗した場合はインメモリ実装へ透過的にフォールバックする。
// 上位層はどちらのバックエンドが使われているかを意識しない。
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Bridge はJSONシリアライズ済み値のキーバリュー永続化インターフェース。
type Bridge interface {
	// Read は指定キーの値を返す。キーが存在しない場合は ok=false を返す。
	Read(key string) (value string, ok bool, err error)
	// Write は指定キーへ値を書き込む。
	Write(key, value string) error
	// Remove は指定キーを削除する。キーが存在しない場合も成功扱い。
	Remove(key string) error
	// Close はバックエンドを閉じる。
	Close() error
}

// probeKey は可用性プローブ用の使い捨てキー。
const probeKey = "paperdeck/__storage_probe__"

// Config はブリッジのオープン設定を保持する。
type Config struct {
	// Dir はBadgerDBのデータディレクトリ。空の場合はインメモリで開く。
	Dir string
	// SyncWrites は書き込みごとの同期を有効にする。
	SyncWrites bool
	// Logger はブリッジのログ出力先。nilの場合はslog.Defaultを使用する。
	Logger *slog.Logger
}

// Open は永続ブリッジを開く。
// DirへのBadgerDBオープンと使い捨てキーの書き込み/削除プローブを行い、
// いずれかに失敗した場合は警告ログを出してインメモリブリッジを返す。
// 戻り値のBridgeは並行利用に対して安全。
func Open(cfg Config) Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Dir == "" {
		logger.Info("storage dir not configured, using in-memory bridge")
		return NewMemoryBridge()
	}

	b, err := openBadger(cfg)
	if err != nil {
		logger.Warn("persistent storage unavailable, falling back to in-memory bridge",
			slog.String("dir", cfg.Dir),
			slog.String("error", err.Error()),
		)
		return NewMemoryBridge()
	}

	// 可用性プローブ。読み書きできないストレージは永続先として使えない。
	if err := b.Write(probeKey, "1"); err == nil {
		err = b.Remove(probeKey)
	}
	if err != nil {
		logger.Warn("storage probe failed, falling back to in-memory bridge",
			slog.String("dir", cfg.Dir),
			slog.String("error", err.Error()),
		)
		b.Close()
		return NewMemoryBridge()
	}

	logger.Info("persistent storage opened", slog.String("dir", cfg.Dir))
	return b
}

// badgerBridge はBadgerDBを用いたBridge実装。
type badgerBridge struct {
	db *badger.DB
}

// openBadger は指定ディレクトリにBadgerDBを開く。
func openBadger(cfg Config) (*badgerBridge, error) {
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("create storage directory %s: %w", cfg.Dir, err)
	}

	opts := badger.DefaultOptions(cfg.Dir).
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &badgerBridge{db: db}, nil
}

// Read は指定キーの値を返す。
func (b *badgerBridge) Read(key string) (string, bool, error) {
	var value string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

// Write は指定キーへ値を書き込む。
func (b *badgerBridge) Write(key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Remove は指定キーを削除する。
func (b *badgerBridge) Remove(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Close はBadgerDBを閉じる。
func (b *badgerBridge) Close() error {
	return b.db.Close()
}

// MemoryBridge はマップによるインメモリBridge実装。
// 永続ストレージが利用できない環境でのフォールバックおよびテストで使用する。
// 内容はプロセス終了で失われる。
type MemoryBridge struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryBridge は空のMemoryBridgeを生成する。
func NewMemoryBridge() *MemoryBridge {
	return &MemoryBridge{values: make(map[string]string)}
}

// Read は指定キーの値を返す。
func (m *MemoryBridge) Read(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Write は指定キーへ値を書き込む。
func (m *MemoryBridge) Write(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove は指定キーを削除する。
func (m *MemoryBridge) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Close は何もしない。
func (m *MemoryBridge) Close() error {
	return nil
}
