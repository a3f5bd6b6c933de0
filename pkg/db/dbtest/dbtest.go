// Package dbtest opens isolated sqlite databases migrated with the service models.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Dj0083/final-project-sub000/pkg/db"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

var seq atomic.Int64

// Open returns a client backed by a fresh in-memory database. The pool is
// capped at one connection so transactions serialize the way row locks would.
func Open(t *testing.T) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db.Wrap(conn)
}

// SeedParty inserts a user with the given role and returns its id.
func SeedParty(t *testing.T, client *db.Client, role enums.Role, name string) uint64 {
	t.Helper()
	party := models.Party{
		Role:  role,
		Name:  name,
		Email: fmt.Sprintf("%s-%d@example.test", strings.ToLower(name), seq.Add(1)),
	}
	if err := client.DB().Create(&party).Error; err != nil {
		t.Fatalf("seed party: %v", err)
	}
	return party.ID
}
