// Package integration contains end-to-end tests that run against a real
// PostgreSQL instance provided by testcontainers.
package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/erp/inventory/internal/domain/inventory"
)

const postgresImage = "postgres:16-alpine"

// One container reused by every test that opts into sharing.
var sharedDB struct {
	sync.Mutex
	container testcontainers.Container
	dsn       string
}

// TestDB wraps a migrated database connection for a single test.
type TestDB struct {
	DB *gorm.DB

	sqlDB     *sql.DB
	container testcontainers.Container
	t         *testing.T
}

// NewTestDB starts a dedicated PostgreSQL container and migrates it.
// The container is torn down when the test finishes.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipInShortMode(t)

	container, dsn := startPostgres(t, "inventory_test")

	db, sqlDB := openGorm(t, dsn)
	applyMigrations(t, sqlDB)

	tdb := &TestDB{DB: db, sqlDB: sqlDB, container: container, t: t}
	t.Cleanup(tdb.close)
	return tdb
}

// NewSharedTestDB hands out a connection to a package-wide container,
// starting and migrating it on first use. Cheaper than NewTestDB for tests
// that truncate between runs instead of demanding a pristine database.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipInShortMode(t)

	sharedDB.Lock()
	defer sharedDB.Unlock()

	if sharedDB.container == nil {
		container, dsn := startPostgres(t, "inventory_shared_test")

		_, sqlDB := openGorm(t, dsn)
		applyMigrations(t, sqlDB)
		sqlDB.Close()

		sharedDB.container = container
		sharedDB.dsn = dsn
	}

	db, sqlDB := openGorm(t, sharedDB.dsn)

	tdb := &TestDB{DB: db, sqlDB: sqlDB, container: sharedDB.container, t: t}
	t.Cleanup(func() { tdb.sqlDB.Close() })
	return tdb
}

func skipInShortMode(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// startPostgres boots a PostgreSQL container and returns it with its DSN.
func startPostgres(t *testing.T, dbName string) (testcontainers.Container, string) {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		postgresImage,
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "resolve container DSN")

	return container, dsn
}

func (tdb *TestDB) close() {
	if tdb.sqlDB != nil {
		tdb.sqlDB.Close()
	}
	// The shared container is terminated from TestMain, not per test.
	if tdb.container != nil && tdb.container != sharedDB.container {
		if err := tdb.container.Terminate(context.Background()); err != nil {
			tdb.t.Logf("terminate container: %v", err)
		}
	}
}

// CleanTables empties every application table in one statement.
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "list tables")

	if len(tables) == 0 {
		return
	}
	err = tdb.DB.Exec("TRUNCATE TABLE " + strings.Join(tables, ", ") + " CASCADE").Error
	require.NoError(tdb.t, err, "truncate tables")
}

// openGorm connects GORM to the given DSN with a small test-sized pool.
// Set TEST_DB_DEBUG to see the SQL each test issues.
func openGorm(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	level := logger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = logger.Info
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	require.NoError(t, err, "open gorm connection")

	sqlDB, err := db.DB()
	require.NoError(t, err, "unwrap sql.DB")

	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

// applyMigrations brings the schema up to date via golang-migrate.
func applyMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	path := locateMigrations()
	require.NotEmpty(t, path, "migrations directory not found")

	driver, err := mpg.WithInstance(sqlDB, &mpg.Config{})
	require.NoError(t, err, "create migration driver")

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	require.NoError(t, err, "create migrate instance")

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "apply migrations")
	}
}

// locateMigrations walks upward from this source file, then from the working
// directory, until it finds a migrations directory.
func locateMigrations() string {
	var roots []string
	if _, filename, _, ok := runtime.Caller(0); ok {
		roots = append(roots, filepath.Dir(filename))
	}
	if wd, err := os.Getwd(); err == nil {
		roots = append(roots, wd)
	}

	for _, dir := range roots {
		for i := 0; i < 5; i++ {
			candidate := filepath.Join(dir, "migrations")
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
			dir = filepath.Dir(dir)
		}
	}
	return ""
}

// CleanupSharedContainer terminates the shared container, if one was started.
func CleanupSharedContainer() {
	sharedDB.Lock()
	defer sharedDB.Unlock()

	if sharedDB.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sharedDB.container.Terminate(ctx)
	sharedDB.container = nil
	sharedDB.dsn = ""
}

// CreateTestWarehouse persists a warehouse and returns it.
func (tdb *TestDB) CreateTestWarehouse(code string) *inventory.Warehouse {
	tdb.t.Helper()

	warehouse, err := inventory.NewWarehouse(code, "Test Warehouse "+code)
	require.NoError(tdb.t, err, "build warehouse")
	require.NoError(tdb.t, tdb.DB.Create(warehouse).Error, "persist warehouse")
	return warehouse
}

// CreateTestProduct persists a stock-tracked product and returns it.
func (tdb *TestDB) CreateTestProduct(code string) *inventory.Product {
	tdb.t.Helper()

	product, err := inventory.NewProduct(code, "Test Product "+code, "NIU")
	require.NoError(tdb.t, err, "build product")
	require.NoError(tdb.t, tdb.DB.Create(product).Error, "persist product")
	return product
}

// CreateTestLotProduct persists a product that requires lot and expiry tracking.
func (tdb *TestDB) CreateTestLotProduct(code string) *inventory.Product {
	tdb.t.Helper()

	product, err := inventory.NewProduct(code, "Test Lot Product "+code, "NIU")
	require.NoError(tdb.t, err, "build product")
	product.RequiresLot = true
	product.TrackExpiry = true
	require.NoError(tdb.t, tdb.DB.Create(product).Error, "persist product")
	return product
}

// StockQuantity reads the stock on hand for a product/warehouse pair.
func (tdb *TestDB) StockQuantity(productID, warehouseID uuid.UUID) decimal.Decimal {
	tdb.t.Helper()

	var record inventory.StockRecord
	err := tdb.DB.
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&record).Error
	require.NoError(tdb.t, err, "read stock record")
	return record.Quantity
}
