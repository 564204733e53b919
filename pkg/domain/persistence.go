package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Either every mutation applied through
// a transaction commits, or none does.
type Transaction interface {
	Snapshot() TransactionView

	CreateRound(Round) (Round, error)
	UpdateRound(id string, mutator func(*Round) error) (Round, error)
	DeleteRound(id string) error

	CreateCategory(Category) (Category, error)
	DeleteCategory(id string) error

	CreateJudge(Judge) (Judge, error)
	DeleteJudge(id string) error

	CreateCandidate(Candidate) (Candidate, error)
	UpdateCandidate(id string, mutator func(*Candidate) error) (Candidate, error)
	// DeleteCandidate removes the candidate row and cascade-deletes its scores.
	DeleteCandidate(id string) error

	// ReplaceJudgeScores atomically swaps one judge's rows for a
	// candidate+round with the supplied set. Other judges' rows are untouched.
	ReplaceJudgeScores(candidateID, judgeID, roundID string, scores []Score) ([]Score, error)

	// UpsertProgression inserts or updates the record keyed on
	// (candidate_id, to_round_id).
	UpsertProgression(ProgressionRecord) (ProgressionRecord, error)
	DeleteProgression(id string) error

	FindRound(id string) (Round, bool)
	FindCandidate(id string) (Candidate, bool)
	FindJudge(id string) (Judge, bool)
	FindCategory(id string) (Category, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// aggregate queries.
type TransactionView = RuleView

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
//
// Implementations must serialize RunInTransaction calls so that the
// read-decide-write sequence of a status transition never interleaves with
// another transition on the same candidate.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetRound(id string) (Round, bool)
	ListRounds() []Round
	GetCandidate(id string) (Candidate, bool)
	ListCandidates() []Candidate
	ListCategories() []Category
	ListJudges() []Judge
	ListScores() []Score
	ListProgressionRecords() []ProgressionRecord
}
