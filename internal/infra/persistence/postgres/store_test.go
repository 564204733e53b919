package postgres

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"recitecore/pkg/domain"

	_ "modernc.org/sqlite"
)

// openSQLiteDouble stands in for a Postgres server during tests. SQLite
// accepts the store's DDL and upsert statements, so the snapshot round-trip
// can be exercised without a running server.
func openSQLiteDouble(t *testing.T, path string) func() {
	t.Helper()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.Open("sqlite", path)
	})
	t.Cleanup(restore)
	return restore
}

func TestRunInTransactionPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	openSQLiteDouble(t, path)

	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	var round domain.Round
	var candidate domain.Candidate
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		round, err = tx.CreateRound(domain.Round{Name: "Preliminary", OrderIndex: 1, IsActive: true})
		if err != nil {
			return err
		}
		candidate, err = tx.CreateCandidate(domain.Candidate{
			RegistrationNumber: "R01-001",
			Name:               "Amina",
			RoundID:            round.ID,
			Status:             domain.StatusActive,
			IsOriginal:         true,
		})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}

	reloaded, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	got, ok := reloaded.GetCandidate(candidate.ID)
	if !ok {
		t.Fatalf("candidate missing after reload")
	}
	if got.RegistrationNumber != "R01-001" || got.RoundID != round.ID {
		t.Fatalf("unexpected candidate after reload: %+v", got)
	}
	if _, ok := reloaded.GetRound(round.ID); !ok {
		t.Fatalf("round missing after reload")
	}
}

func TestRunInTransactionDoesNotPersistFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	openSQLiteDouble(t, path)

	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	boom := errors.New("boom")
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateRound(domain.Round{Name: "Doomed", OrderIndex: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	reloaded, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	if rounds := reloaded.ListRounds(); len(rounds) != 0 {
		t.Fatalf("failed transaction must not persist, found %d rounds", len(rounds))
	}
}

func TestNewStoreOpenError(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return nil, errors.New("refused")
	})
	defer restore()

	if _, err := NewStore("", domain.NewRulesEngine()); err == nil {
		t.Fatalf("expected open error")
	}
}
