package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"recitecore/pkg/domain"
)

type blockAllRule struct{}

func (blockAllRule) Name() string { return "block_all" }

func (blockAllRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for range changes {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "block_all",
			Severity: domain.SeverityBlock,
			Message:  "blocked",
		})
	}
	return res, nil
}

func seedRound(t *testing.T, store *Store, name string, order int) Round {
	t.Helper()
	var round Round
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		round, err = tx.CreateRound(Round{Name: name, OrderIndex: order, IsActive: true})
		return err
	})
	if err != nil {
		t.Fatalf("seed round: %v", err)
	}
	return round
}

func seedCandidate(t *testing.T, store *Store, roundID, reg string) Candidate {
	t.Helper()
	var candidate Candidate
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		candidate, err = tx.CreateCandidate(Candidate{
			RegistrationNumber: reg,
			Name:               "Candidate " + reg,
			RoundID:            roundID,
			Status:             domain.StatusActive,
			IsOriginal:         true,
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	return candidate
}

func TestRunInTransactionCommitsOnSuccess(t *testing.T) {
	store := NewStore(nil)
	round := seedRound(t, store, "Preliminary", 1)

	got, ok := store.GetRound(round.ID)
	if !ok {
		t.Fatalf("expected round to be committed")
	}
	if got.Name != "Preliminary" || got.OrderIndex != 1 {
		t.Fatalf("unexpected round: %+v", got)
	}
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	store := NewStore(nil)
	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateRound(Round{Name: "Doomed", OrderIndex: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if rounds := store.ListRounds(); len(rounds) != 0 {
		t.Fatalf("expected rollback, found %d rounds", len(rounds))
	}
}

func TestRunInTransactionBlocksOnRuleViolation(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockAllRule{})
	store := NewStore(engine)

	res, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateRound(Round{Name: "Blocked", OrderIndex: 1})
		return err
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking violations in result")
	}
	if rounds := store.ListRounds(); len(rounds) != 0 {
		t.Fatalf("blocked transaction must not commit, found %d rounds", len(rounds))
	}
}

func TestDeleteCandidateCascadesScores(t *testing.T) {
	store := NewStore(nil)
	round := seedRound(t, store, "Prelim", 1)
	candidate := seedCandidate(t, store, round.ID, "R01-001")
	var judge Judge
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		judge, err = tx.CreateJudge(Judge{Name: "Judge A"})
		if err != nil {
			return err
		}
		_, err = tx.ReplaceJudgeScores(candidate.ID, judge.ID, round.ID, []Score{
			{QuestionNumber: 1, Accuracy: 2, Rules: 1, Fluency: 1, Voice: 0},
			{QuestionNumber: 2, Accuracy: 1, Rules: 2, Fluency: 0, Voice: 1},
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed scores: %v", err)
	}
	if got := len(store.ListScores()); got != 2 {
		t.Fatalf("expected 2 scores, got %d", got)
	}

	_, err = store.RunInTransaction(context.Background(), func(tx Transaction) error {
		return tx.DeleteCandidate(candidate.ID)
	})
	if err != nil {
		t.Fatalf("delete candidate: %v", err)
	}
	if got := len(store.ListScores()); got != 0 {
		t.Fatalf("expected cascade to remove scores, %d left", got)
	}
}

func TestReplaceJudgeScoresSwapsRows(t *testing.T) {
	store := NewStore(nil)
	round := seedRound(t, store, "Prelim", 1)
	candidate := seedCandidate(t, store, round.ID, "R01-001")
	var judge Judge
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		judge, err = tx.CreateJudge(Judge{Name: "Judge A"})
		return err
	})
	if err != nil {
		t.Fatalf("seed judge: %v", err)
	}

	submit := func(accuracy int) {
		t.Helper()
		_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
			_, err := tx.ReplaceJudgeScores(candidate.ID, judge.ID, round.ID, []Score{
				{QuestionNumber: 1, Accuracy: accuracy, Rules: 2, Fluency: 1, Voice: 1},
			})
			return err
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	submit(1)
	submit(2)

	scores := store.ListScores()
	if len(scores) != 1 {
		t.Fatalf("resubmission must swap rows, got %d", len(scores))
	}
	if scores[0].Accuracy != 2 {
		t.Fatalf("expected latest submission to win, got accuracy %d", scores[0].Accuracy)
	}
	if scores[0].TotalScore != 6 {
		t.Fatalf("expected recomputed total 6, got %d", scores[0].TotalScore)
	}
}

func TestReplaceJudgeScoresMissingJudge(t *testing.T) {
	store := NewStore(nil)
	round := seedRound(t, store, "Prelim", 1)
	candidate := seedCandidate(t, store, round.ID, "R01-001")

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.ReplaceJudgeScores(candidate.ID, "missing", round.ID, nil)
		return err
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpsertProgressionUpdatesExisting(t *testing.T) {
	store := NewStore(nil)
	round := seedRound(t, store, "Prelim", 1)
	next := seedRound(t, store, "Semi", 2)
	candidate := seedCandidate(t, store, round.ID, "R01-001")

	stamp := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpsertProgression(ProgressionRecord{
			CandidateID: candidate.ID,
			FromRoundID: round.ID,
			ToRoundID:   next.ID,
			QualifiedBy: "admin",
			QualifiedAt: stamp,
			Status:      domain.ProgressionPromoted,
		})
		return err
	})
	if err != nil {
		t.Fatalf("insert progression: %v", err)
	}

	_, err = store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpsertProgression(ProgressionRecord{
			CandidateID: candidate.ID,
			FromRoundID: round.ID,
			ToRoundID:   next.ID,
			QualifiedBy: "admin2",
			QualifiedAt: stamp.Add(time.Hour),
			Status:      domain.ProgressionPromoted,
		})
		return err
	})
	if err != nil {
		t.Fatalf("upsert progression: %v", err)
	}

	records := store.ListProgressionRecords()
	if len(records) != 1 {
		t.Fatalf("upsert must not duplicate records, got %d", len(records))
	}
	if records[0].QualifiedBy != "admin2" {
		t.Fatalf("expected updated actor, got %s", records[0].QualifiedBy)
	}
}

func TestUpdateRoundOrderIndexImmutableWhenOccupied(t *testing.T) {
	store := NewStore(nil)
	round := seedRound(t, store, "Prelim", 1)
	seedCandidate(t, store, round.ID, "R01-001")

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateRound(round.ID, func(r *Round) error {
			r.OrderIndex = 5
			return nil
		})
		return err
	})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	_, err = store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateRound(round.ID, func(r *Round) error {
			r.Name = "Preliminary"
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("rename should be allowed: %v", err)
	}
}

func TestImportStateRepairsIntegrity(t *testing.T) {
	store := NewStore(nil)
	rootID := "root"
	missing := "missing"
	snapshot := Snapshot{
		Rounds: map[string]Round{
			"r1": {Base: domain.Base{ID: "r1"}, Name: "Prelim", OrderIndex: 1},
		},
		Candidates: map[string]Candidate{
			rootID: {Base: domain.Base{ID: rootID}, RegistrationNumber: "R01-001", RoundID: "r1", Status: domain.StatusActive, IsOriginal: true},
			"bad-status": {
				Base: domain.Base{ID: "bad-status"}, RegistrationNumber: "R01-002", RoundID: "r1",
				Status: domain.CandidateStatus("bogus"), IsOriginal: true,
			},
			"orphan-clone": {
				Base: domain.Base{ID: "orphan-clone"}, RegistrationNumber: "R01-003", RoundID: "r1",
				Status: domain.StatusActive, OriginalCandidateID: &missing,
			},
			"no-round": {
				Base: domain.Base{ID: "no-round"}, RegistrationNumber: "R09-001", RoundID: "gone",
				Status: domain.StatusActive, IsOriginal: true,
			},
		},
		Scores: map[string]Score{
			"s1": {Base: domain.Base{ID: "s1"}, CandidateID: rootID, RoundID: "r1", QuestionNumber: 1, Accuracy: 2, Rules: 2, Fluency: 1, Voice: 1, TotalScore: 99},
			"s2": {Base: domain.Base{ID: "s2"}, CandidateID: "gone", RoundID: "r1", QuestionNumber: 1},
		},
		Progressions: map[string]ProgressionRecord{
			"p1": {Base: domain.Base{ID: "p1"}, CandidateID: "gone", ToRoundID: "r1"},
		},
	}
	store.ImportState(snapshot)

	candidates := store.ListCandidates()
	if len(candidates) != 2 {
		t.Fatalf("expected orphan rows dropped, got %d candidates", len(candidates))
	}
	for _, c := range candidates {
		if !c.Status.Valid() {
			t.Fatalf("invalid status survived import: %+v", c)
		}
	}
	scores := store.ListScores()
	if len(scores) != 1 {
		t.Fatalf("expected orphan scores dropped, got %d", len(scores))
	}
	if scores[0].TotalScore != 6 {
		t.Fatalf("expected recomputed total 6, got %d", scores[0].TotalScore)
	}
	if got := len(store.ListProgressionRecords()); got != 0 {
		t.Fatalf("expected orphan progressions dropped, got %d", got)
	}
}
