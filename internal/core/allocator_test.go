package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRegistration(t *testing.T) {
	round := Round{OrderIndex: 2}
	assert.Equal(t, "R02-007", FormatRegistration(round, 7))
	assert.Equal(t, "R10-123", FormatRegistration(Round{OrderIndex: 10}, 123))
}

func TestAllocateRegistrationSequence(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	prelim := mustCreateRound(t, svc, "Preliminary", 1, true)

	first := mustRegister(t, svc, prelim.ID, "Amina")
	second := mustRegister(t, svc, prelim.ID, "Bilal")
	third := mustRegister(t, svc, prelim.ID, "Chadia")
	assert.Equal(t, "R01-001", first.RegistrationNumber)
	assert.Equal(t, "R01-002", second.RegistrationNumber)
	assert.Equal(t, "R01-003", third.RegistrationNumber)

	// Deleting the middle candidate frees its number for the next allocation.
	_, err := svc.Store().RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteCandidate(second.ID)
	})
	require.NoError(t, err)

	fourth := mustRegister(t, svc, prelim.ID, "Dawud")
	assert.Equal(t, "R01-002", fourth.RegistrationNumber)

	fifth := mustRegister(t, svc, prelim.ID, "Esra")
	assert.Equal(t, "R01-004", fifth.RegistrationNumber)
}

func TestAllocateRegistrationScopedPerRound(t *testing.T) {
	svc := newTestService(t)
	prelim := mustCreateRound(t, svc, "Preliminary", 1, true)
	semi := mustCreateRound(t, svc, "Semi Final", 2, false)

	mustRegister(t, svc, prelim.ID, "Amina")
	inSemi := mustRegister(t, svc, semi.ID, "Bilal")
	assert.Equal(t, "R02-001", inSemi.RegistrationNumber)
}

func TestAllocateRegistrationIgnoresForeignPrefixes(t *testing.T) {
	store := NewMemoryStore(nil)
	round := Round{Base: Base{ID: "r1"}, OrderIndex: 1}
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateRound(round); err != nil {
			return err
		}
		// A row imported with a legacy number must not derail the scan.
		_, err := tx.CreateCandidate(Candidate{
			RegistrationNumber: "LEGACY-1",
			Name:               "Imported",
			RoundID:            "r1",
			Status:             StatusActive,
			IsOriginal:         true,
		})
		return err
	})
	require.NoError(t, err)

	var got string
	err = store.View(context.Background(), func(view TransactionView) error {
		r, _ := view.FindRound("r1")
		got = AllocateRegistration(view, r)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "R01-001", got)
}
