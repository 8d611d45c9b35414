// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xploralabs/xplora/server/cache"
	"github.com/xploralabs/xplora/server/config"
	"github.com/xploralabs/xplora/server/db"
	"github.com/xploralabs/xplora/server/model"
)

// SetupTestDB opens a private in-memory database and migrates the full
// schema into it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(config.DatabaseConfig{Mode: db.ModeSQLiteMemory})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

// SetupTestCache returns an in-process cache.
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{})
	if err != nil {
		t.Fatalf("open test cache: %v", err)
	}
	return c
}

// SetupTestPubSub returns an in-process pub/sub.
func SetupTestPubSub(t *testing.T) cache.PubSub {
	t.Helper()
	ps, err := cache.NewPubSub(cache.CacheConfig{})
	if err != nil {
		t.Fatalf("open test pubsub: %v", err)
	}
	return ps
}

// Logger returns a no-op logger for tests.
func Logger() *zap.Logger {
	return zap.NewNop()
}
