// Package testutil provides an in-memory database for repository and engine tests.
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shinyyama/marketplace-inbox/internal/db"
	"github.com/shinyyama/marketplace-inbox/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database private to t. A single connection keeps
// concurrent queries on the same in-memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// Base is the reference instant test fixtures count from.
var Base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// At returns Base plus the given number of minutes.
func At(minutes int) time.Time {
	return Base.Add(time.Duration(minutes) * time.Minute)
}

// Msg builds a message sent at At(minute).
func Msg(from, to string, minute int, body string) model.Message {
	return model.Message{SenderUID: from, RecipientUID: to, Body: body, CreatedAt: At(minute)}
}

// Insert writes msgs in order and returns them with ids assigned.
func Insert(t testing.TB, gdb *gorm.DB, msgs ...model.Message) []model.Message {
	t.Helper()
	for i := range msgs {
		if err := gdb.Create(&msgs[i]).Error; err != nil {
			t.Fatalf("insert message: %v", err)
		}
	}
	return msgs
}
