package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestGuardrailConfigRepositoryResolve(t *testing.T) {
	cfgColumns := []string{"id", "workspace_id", "campaign_id", "is_enabled", "mode"}

	t.Run("campaign specific row wins", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &GuardrailConfigRepository{db: mockDB}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "guardrail_configs" WHERE workspace_id = $1 AND campaign_id = $2`)).
			WithArgs("ws-1", "camp-1", 1).
			WillReturnRows(sqlmock.NewRows(cfgColumns).
				AddRow(7, "ws-1", "camp-1", true, "AGGRESSIVE"))

		cfg, err := repo.Resolve(context.Background(), "ws-1", "camp-1")
		if err != nil {
			t.Fatalf("unexpected error resolving config: %v", err)
		}
		if cfg == nil || cfg.ID != 7 {
			t.Fatalf("expected campaign config with id 7, got %+v", cfg)
		}
		if cfg.CampaignID == nil || *cfg.CampaignID != "camp-1" {
			t.Fatalf("expected campaign scope, got %+v", cfg.CampaignID)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("falls back to workspace default", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &GuardrailConfigRepository{db: mockDB}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "guardrail_configs" WHERE workspace_id = $1 AND campaign_id = $2`)).
			WithArgs("ws-1", "camp-1", 1).
			WillReturnRows(sqlmock.NewRows(cfgColumns))

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "guardrail_configs" WHERE workspace_id = $1 AND campaign_id IS NULL`)).
			WithArgs("ws-1", 1).
			WillReturnRows(sqlmock.NewRows(cfgColumns).
				AddRow(3, "ws-1", nil, true, "CONSERVATIVE"))

		cfg, err := repo.Resolve(context.Background(), "ws-1", "camp-1")
		if err != nil {
			t.Fatalf("unexpected error resolving config: %v", err)
		}
		if cfg == nil || cfg.ID != 3 {
			t.Fatalf("expected workspace default with id 3, got %+v", cfg)
		}
		if cfg.CampaignID != nil {
			t.Fatalf("workspace default must not carry a campaign id, got %v", *cfg.CampaignID)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("no config in either scope", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &GuardrailConfigRepository{db: mockDB}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "guardrail_configs" WHERE workspace_id = $1 AND campaign_id = $2`)).
			WithArgs("ws-1", "camp-1", 1).
			WillReturnRows(sqlmock.NewRows(cfgColumns))

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "guardrail_configs" WHERE workspace_id = $1 AND campaign_id IS NULL`)).
			WithArgs("ws-1", 1).
			WillReturnRows(sqlmock.NewRows(cfgColumns))

		cfg, err := repo.Resolve(context.Background(), "ws-1", "camp-1")
		if err != nil {
			t.Fatalf("missing config should not be an error: %v", err)
		}
		if cfg != nil {
			t.Fatalf("expected nil config, got %+v", cfg)
		}
	})

	t.Run("empty campaign id skips the campaign lookup", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &GuardrailConfigRepository{db: mockDB}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "guardrail_configs" WHERE workspace_id = $1 AND campaign_id IS NULL`)).
			WithArgs("ws-1", 1).
			WillReturnRows(sqlmock.NewRows(cfgColumns).
				AddRow(3, "ws-1", nil, false, "MODERATE"))

		cfg, err := repo.Resolve(context.Background(), "ws-1", "")
		if err != nil {
			t.Fatalf("unexpected error resolving config: %v", err)
		}
		if cfg == nil || cfg.ID != 3 {
			t.Fatalf("expected workspace default, got %+v", cfg)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}

func ptrString(val string) *string {
	return &val
}
