// Package integration provides integration tests for the stock
// service. It uses testcontainers to spin up real PostgreSQL databases.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB represents a test database connection
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

// NewTestDB creates a fresh PostgreSQL container with the schema
// applied, providing complete isolation per test
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stock_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	db, sqlDB := connectToDatabase(t, dsn)
	runMigrations(t, sqlDB)

	testDB := &TestDB{
		DB:        db,
		SqlDB:     sqlDB,
		Container: container,
		DSN:       dsn,
		t:         t,
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// Close closes the database connection and terminates the container
func (tdb *TestDB) Close() {
	ctx := context.Background()

	if tdb.SqlDB != nil {
		tdb.SqlDB.Close()
	}

	if tdb.Container != nil {
		if err := tdb.Container.Terminate(ctx); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// CleanTables truncates all tables except the migration bookkeeping
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "Failed to get table names")

	for _, table := range tables {
		err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error
		if err != nil {
			tdb.t.Logf("Warning: Failed to truncate table %s: %v", table, err)
		}
	}
}

// connectToDatabase establishes a GORM connection to the database
func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")

	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

// runMigrations applies all database migrations
func runMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	migrationsPath := findMigrationsPath()
	require.NotEmpty(t, migrationsPath, "Could not find migrations directory")

	driver, err := mpg.WithInstance(sqlDB, &mpg.Config{})
	require.NoError(t, err, "Failed to create migration driver")

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsPath,
		"postgres",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to run migrations")
	}
}

// findMigrationsPath locates the migrations directory relative to this file
func findMigrationsPath() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}

	dir := filepath.Dir(filename)
	for i := 0; i < 5; i++ {
		migrationsPath := filepath.Join(dir, "migrations")
		if _, err := os.Stat(migrationsPath); err == nil {
			return migrationsPath
		}
		dir = filepath.Dir(dir)
	}

	if wd, err := os.Getwd(); err == nil {
		paths := []string{
			filepath.Join(wd, "migrations"),
			filepath.Join(wd, "..", "migrations"),
			filepath.Join(wd, "..", "..", "migrations"),
		}
		for _, p := range paths {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}

	return ""
}
