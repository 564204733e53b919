package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recitecore/internal/blob"
	"recitecore/internal/core"
	"recitecore/internal/infra/persistence/memory"
	"recitecore/pkg/domain"
)

func seedStore(t *testing.T) (*memory.Store, domain.Candidate) {
	t.Helper()
	store := memory.NewStore(core.DefaultRulesEngine())
	var candidate domain.Candidate
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		round, err := tx.CreateRound(domain.Round{Name: "Preliminary", OrderIndex: 1, IsActive: true})
		if err != nil {
			return err
		}
		candidate, err = tx.CreateCandidate(domain.Candidate{
			RoundID:            round.ID,
			Name:               "Amina Yusuf",
			RegistrationNumber: "R01-001",
			Status:             domain.StatusActive,
			IsOriginal:         true,
		})
		return err
	})
	require.NoError(t, err)
	return store, candidate
}

func TestArchiveAndRestore(t *testing.T) {
	store, candidate := seedStore(t)
	blobs := blob.NewMemory()
	stamp := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	arch := New(store, blobs, WithNow(func() time.Time { return stamp }))

	manifest, err := arch.Archive(context.Background(), "After Prelims")
	require.NoError(t, err)
	require.Equal(t, "after-prelims", manifest.Label)
	require.Equal(t, "archives/20250701T120000Z-after-prelims", manifest.Prefix)
	require.Equal(t, 1, manifest.Counts["rounds"])
	require.Equal(t, 1, manifest.Counts["candidates"])
	require.Equal(t, 0, manifest.Counts["scores"])

	infos, err := blobs.List(context.Background(), manifest.Prefix)
	require.NoError(t, err)
	require.Len(t, infos, 7) // six buckets plus the manifest

	// wipe and restore
	store.ImportState(memory.Snapshot{})
	require.Empty(t, store.ExportState().Candidates)

	restored, err := arch.Restore(context.Background(), manifest.Prefix)
	require.NoError(t, err)
	require.Equal(t, manifest.Label, restored.Label)

	state := store.ExportState()
	require.Len(t, state.Candidates, 1)
	require.Equal(t, "Amina Yusuf", state.Candidates[candidate.ID].Name)
	require.True(t, state.Rounds[candidate.RoundID].IsActive)
}

func TestListReturnsNewestFirst(t *testing.T) {
	store, _ := seedStore(t)
	blobs := blob.NewMemory()
	current := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	arch := New(store, blobs, WithNow(func() time.Time { return current }))

	_, err := arch.Archive(context.Background(), "first")
	require.NoError(t, err)
	current = current.Add(time.Hour)
	_, err = arch.Archive(context.Background(), "second")
	require.NoError(t, err)

	manifests, err := arch.List(context.Background())
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	require.Equal(t, "second", manifests[0].Label)
	require.Equal(t, "first", manifests[1].Label)
}

func TestRestoreMissingArchive(t *testing.T) {
	store, _ := seedStore(t)
	arch := New(store, blob.NewMemory())

	_, err := arch.Restore(context.Background(), "archives/nope")
	require.Error(t, err)
}
