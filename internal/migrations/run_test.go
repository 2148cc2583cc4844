package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/billing-manager/internal/models"
	"github.com/magabrotheeeer/billing-manager/internal/storage/repository"
)

func getTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

func getMigrationsPath(t *testing.T) string {
	projectRoot, err := filepath.Abs("../..")
	require.NoError(t, err)

	migrationsPath := filepath.Join(projectRoot, "migrations")
	t.Logf("Migrations path: %s", migrationsPath)
	return migrationsPath
}

func TestRunMigrations(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	migrationsPath := getMigrationsPath(t)

	err := Run(db, migrationsPath)
	require.NoError(t, err)

	var tablesCount int
	err = db.QueryRow(`
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public'
	`).Scan(&tablesCount)
	require.NoError(t, err)
	require.Greater(t, tablesCount, 0, "Should have tables after migration")

	for _, table := range []string{
		"clients", "subscriptions", "subscription_clients",
		"invoices", "invoice_sequences", "email_logs",
		"reminder_templates", "broadcast_schedules", "broadcast_recipients",
		"users",
	} {
		var exists bool
		err = db.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)
		`, table).Scan(&exists)
		require.NoError(t, err)
		require.True(t, exists, "Table %q should exist", table)
	}

	var exists bool
	err = db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = 'public'
			AND tablename = 'invoices'
			AND indexname = 'idx_invoices_status'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "Index should exist")
}

// Засев стартовых данных должен проходить сразу после миграций, иначе
// API-процесс не поднимется.
func TestSeedAfterMigrations(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	err := Run(db, getMigrationsPath(t))
	require.NoError(t, err)

	ctx := context.Background()
	storage := &repository.Storage{DB: db}

	err = storage.SeedReminderTemplates(ctx, models.DefaultReminderTemplates())
	require.NoError(t, err)

	var templatesCount int
	err = db.QueryRow(`SELECT COUNT(*) FROM reminder_templates`).Scan(&templatesCount)
	require.NoError(t, err)
	require.Equal(t, 3, templatesCount)

	err = storage.UpsertReminderTemplate(ctx, models.ReminderTemplate{
		Type:    models.TemplateDay3,
		Content: "edited",
	})
	require.NoError(t, err)

	err = storage.UpsertUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        "admin@mycompany.com",
		PasswordHash: "bcrypt-hash",
	})
	require.NoError(t, err)
}

// Удаление клиента не должно трогать его счета: ссылки остаются висячими.
func TestInvoiceSurvivesClientDelete(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	err := Run(db, getMigrationsPath(t))
	require.NoError(t, err)

	clientID := uuid.NewString()
	_, err = db.Exec(`INSERT INTO clients (id, name, phone, email)
					  VALUES ($1, 'Acme', '+1 555 0100', 'acme@example.com')`, clientID)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO invoices
					  (id, invoice_id, client_id, subscription_id, duration_months,
					   price_per_month, invoice_date, due_date)
					  VALUES ($1, 'INV-2026-001', $2, $3, 1, 49.90, now(), now() + interval '30 days')`,
		uuid.NewString(), clientID, uuid.NewString())
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM clients WHERE id = $1`, clientID)
	require.NoError(t, err)

	var invoicesCount int
	err = db.QueryRow(`SELECT COUNT(*) FROM invoices WHERE client_id = $1`, clientID).Scan(&invoicesCount)
	require.NoError(t, err)
	require.Equal(t, 1, invoicesCount)
}

func TestMigrationIdempotency(t *testing.T) {
	db, cleanup := getTestDB(t)
	defer cleanup()

	migrationsPath := getMigrationsPath(t)

	err := Run(db, migrationsPath)
	require.NoError(t, err)

	err = Run(db, migrationsPath)
	require.True(t, err == nil || err.Error() == "no change",
		"Running migrations twice should not fail. Got error: %v", err)
}
