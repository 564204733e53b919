// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"recitecore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Round aliases domain.Round for in-memory persistence operations.
	Round = domain.Round
	// Category aliases domain.Category.
	Category = domain.Category
	// Judge aliases domain.Judge.
	Judge = domain.Judge
	// Candidate aliases domain.Candidate.
	Candidate = domain.Candidate
	// Score aliases domain.Score.
	Score = domain.Score
	// ProgressionRecord aliases domain.ProgressionRecord.
	ProgressionRecord = domain.ProgressionRecord
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	rounds       map[string]Round
	categories   map[string]Category
	judges       map[string]Judge
	candidates   map[string]Candidate
	scores       map[string]Score
	progressions map[string]ProgressionRecord
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Rounds       map[string]Round             `json:"rounds"`
	Categories   map[string]Category          `json:"categories"`
	Judges       map[string]Judge             `json:"judges"`
	Candidates   map[string]Candidate         `json:"candidates"`
	Scores       map[string]Score             `json:"scores"`
	Progressions map[string]ProgressionRecord `json:"progressions"`
}

func newMemoryState() memoryState {
	return memoryState{
		rounds:       make(map[string]Round),
		categories:   make(map[string]Category),
		judges:       make(map[string]Judge),
		candidates:   make(map[string]Candidate),
		scores:       make(map[string]Score),
		progressions: make(map[string]ProgressionRecord),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Rounds:       make(map[string]Round, len(state.rounds)),
		Categories:   make(map[string]Category, len(state.categories)),
		Judges:       make(map[string]Judge, len(state.judges)),
		Candidates:   make(map[string]Candidate, len(state.candidates)),
		Scores:       make(map[string]Score, len(state.scores)),
		Progressions: make(map[string]ProgressionRecord, len(state.progressions)),
	}
	for k, v := range state.rounds {
		s.Rounds[k] = v
	}
	for k, v := range state.categories {
		s.Categories[k] = v
	}
	for k, v := range state.judges {
		s.Judges[k] = v
	}
	for k, v := range state.candidates {
		s.Candidates[k] = cloneCandidate(v)
	}
	for k, v := range state.scores {
		s.Scores[k] = v
	}
	for k, v := range state.progressions {
		s.Progressions[k] = v
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Rounds {
		state.rounds[k] = v
	}
	for k, v := range s.Categories {
		state.categories[k] = v
	}
	for k, v := range s.Judges {
		state.judges[k] = v
	}
	for k, v := range s.Candidates {
		state.candidates[k] = cloneCandidate(v)
	}
	for k, v := range s.Scores {
		state.scores[k] = v
	}
	for k, v := range s.Progressions {
		state.progressions[k] = v
	}
	return state
}

// migrateSnapshot repairs referential integrity on import: clone rows whose
// root disappeared are dropped, scores whose candidate or round disappeared
// are dropped, and progression records pointing at missing candidates or
// rounds are dropped.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Rounds == nil {
		snapshot.Rounds = map[string]Round{}
	}
	if snapshot.Categories == nil {
		snapshot.Categories = map[string]Category{}
	}
	if snapshot.Judges == nil {
		snapshot.Judges = map[string]Judge{}
	}
	if snapshot.Candidates == nil {
		snapshot.Candidates = map[string]Candidate{}
	}
	if snapshot.Scores == nil {
		snapshot.Scores = map[string]Score{}
	}
	if snapshot.Progressions == nil {
		snapshot.Progressions = map[string]ProgressionRecord{}
	}

	roundExists := func(id string) bool {
		_, ok := snapshot.Rounds[id]
		return ok
	}
	candidateExists := func(id string) bool {
		_, ok := snapshot.Candidates[id]
		return ok
	}

	for id, candidate := range snapshot.Candidates {
		if !roundExists(candidate.RoundID) {
			delete(snapshot.Candidates, id)
			continue
		}
		if !candidate.IsOriginal {
			if candidate.OriginalCandidateID == nil || !candidateExists(*candidate.OriginalCandidateID) {
				delete(snapshot.Candidates, id)
				continue
			}
		}
		if !candidate.Status.Valid() {
			candidate.Status = domain.StatusActive
		}
		snapshot.Candidates[id] = candidate
	}

	for id, score := range snapshot.Scores {
		if !candidateExists(score.CandidateID) || !roundExists(score.RoundID) {
			delete(snapshot.Scores, id)
			continue
		}
		score.TotalScore = score.Total()
		snapshot.Scores[id] = score
	}

	for id, record := range snapshot.Progressions {
		if !candidateExists(record.CandidateID) {
			delete(snapshot.Progressions, id)
		}
	}

	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.rounds {
		cloned.rounds[k] = v
	}
	for k, v := range s.categories {
		cloned.categories[k] = v
	}
	for k, v := range s.judges {
		cloned.judges[k] = v
	}
	for k, v := range s.candidates {
		cloned.candidates[k] = cloneCandidate(v)
	}
	for k, v := range s.scores {
		cloned.scores[k] = v
	}
	for k, v := range s.progressions {
		cloned.progressions[k] = v
	}
	return cloned
}

func cloneCandidate(c Candidate) Candidate {
	cp := c
	if c.OriginalCandidateID != nil {
		root := *c.OriginalCandidateID
		cp.OriginalCandidateID = &root
	}
	return cp
}

// Store provides an in-memory transactional store for the core domain.
// A single mutex serializes transactions, which is what gives status
// transitions their read-decide-write atomicity.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetNowFunc overrides the time provider, primarily for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy is swapped in only after fn succeeds and no registered rule blocks.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// GetRound retrieves a round outside a transaction scope.
func (s *Store) GetRound(id string) (Round, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.rounds[id]
	return r, ok
}

// ListRounds returns all rounds ordered by their order index.
func (s *Store) ListRounds() []Round {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRounds(&s.state)
}

// GetCandidate retrieves a candidate by id.
func (s *Store) GetCandidate(id string) (Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.candidates[id]
	if !ok {
		return Candidate{}, false
	}
	return cloneCandidate(c), true
}

// ListCandidates returns all candidates ordered by round and registration number.
func (s *Store) ListCandidates() []Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCandidates(&s.state)
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCategories(&s.state)
}

// ListJudges returns all judges ordered by name.
func (s *Store) ListJudges() []Judge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedJudges(&s.state)
}

// ListScores returns all score rows in a stable order.
func (s *Store) ListScores() []Score {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedScores(&s.state)
}

// ListProgressionRecords returns all progression records, most recent first.
func (s *Store) ListProgressionRecords() []ProgressionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedProgressions(&s.state)
}

func sortedRounds(state *memoryState) []Round {
	out := make([]Round, 0, len(state.rounds))
	for _, r := range state.rounds {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}

func sortedCategories(state *memoryState) []Category {
	out := make([]Category, 0, len(state.categories))
	for _, c := range state.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedJudges(state *memoryState) []Judge {
	out := make([]Judge, 0, len(state.judges))
	for _, j := range state.judges {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedCandidates(state *memoryState) []Candidate {
	out := make([]Candidate, 0, len(state.candidates))
	for _, c := range state.candidates {
		out = append(out, cloneCandidate(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundID != out[j].RoundID {
			return out[i].RoundID < out[j].RoundID
		}
		return out[i].RegistrationNumber < out[j].RegistrationNumber
	})
	return out
}

func sortedScores(state *memoryState) []Score {
	out := make([]Score, 0, len(state.scores))
	for _, sc := range state.scores {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CandidateID != b.CandidateID {
			return a.CandidateID < b.CandidateID
		}
		if a.JudgeID != b.JudgeID {
			return a.JudgeID < b.JudgeID
		}
		return a.QuestionNumber < b.QuestionNumber
	})
	return out
}

func sortedProgressions(state *memoryState) []ProgressionRecord {
	out := make([]ProgressionRecord, 0, len(state.progressions))
	for _, p := range state.progressions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].QualifiedAt.Equal(out[j].QualifiedAt) {
			return out[i].QualifiedAt.After(out[j].QualifiedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListRounds returns all rounds within the transaction snapshot.
func (v transactionView) ListRounds() []Round { return sortedRounds(v.state) }

// ListCategories returns all categories within the snapshot.
func (v transactionView) ListCategories() []Category { return sortedCategories(v.state) }

// ListJudges returns all judges within the snapshot.
func (v transactionView) ListJudges() []Judge { return sortedJudges(v.state) }

// ListCandidates returns all candidates within the snapshot.
func (v transactionView) ListCandidates() []Candidate { return sortedCandidates(v.state) }

// ListScores returns all score rows within the snapshot.
func (v transactionView) ListScores() []Score { return sortedScores(v.state) }

// ListProgressionRecords returns all progression records within the snapshot.
func (v transactionView) ListProgressionRecords() []ProgressionRecord {
	return sortedProgressions(v.state)
}

// FindRound retrieves a round by ID from the snapshot.
func (v transactionView) FindRound(id string) (Round, bool) {
	r, ok := v.state.rounds[id]
	return r, ok
}

// FindCategory retrieves a category by ID from the snapshot.
func (v transactionView) FindCategory(id string) (Category, bool) {
	c, ok := v.state.categories[id]
	return c, ok
}

// FindJudge retrieves a judge by ID from the snapshot.
func (v transactionView) FindJudge(id string) (Judge, bool) {
	j, ok := v.state.judges[id]
	return j, ok
}

// FindCandidate retrieves a candidate by ID from the snapshot.
func (v transactionView) FindCandidate(id string) (Candidate, bool) {
	c, ok := v.state.candidates[id]
	if !ok {
		return Candidate{}, false
	}
	return cloneCandidate(c), true
}

// FindProgressionRecord retrieves a progression record by ID from the snapshot.
func (v transactionView) FindProgressionRecord(id string) (ProgressionRecord, bool) {
	p, ok := v.state.progressions[id]
	return p, ok
}

// helper to record and append change entries.
func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// CreateRound stores a new round within the transaction.
func (tx *transaction) CreateRound(r Round) (Round, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.rounds[r.ID]; exists {
		return Round{}, domain.ConflictError{Entity: domain.EntityRound, Detail: "round " + r.ID + " already exists"}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.rounds[r.ID] = r
	tx.recordChange(Change{Entity: domain.EntityRound, Action: domain.ActionCreate, After: r})
	return r, nil
}

// UpdateRound mutates a round using the provided mutator. The order index
// is immutable once candidates occupy the round.
func (tx *transaction) UpdateRound(id string, mutator func(*Round) error) (Round, error) {
	current, ok := tx.state.rounds[id]
	if !ok {
		return Round{}, domain.NotFoundError{Entity: domain.EntityRound, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Round{}, err
	}
	current.ID = id
	if current.OrderIndex != before.OrderIndex && tx.roundOccupied(id) {
		return Round{}, domain.ConflictError{Entity: domain.EntityRound, Detail: "order index is immutable once the round has candidates"}
	}
	current.UpdatedAt = tx.now
	tx.state.rounds[id] = current
	tx.recordChange(Change{Entity: domain.EntityRound, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

func (tx *transaction) roundOccupied(roundID string) bool {
	for _, c := range tx.state.candidates {
		if c.RoundID == roundID {
			return true
		}
	}
	return false
}

// DeleteRound removes a round from the transaction state.
func (tx *transaction) DeleteRound(id string) error {
	current, ok := tx.state.rounds[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityRound, ID: id}
	}
	delete(tx.state.rounds, id)
	tx.recordChange(Change{Entity: domain.EntityRound, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateCategory stores a new category.
func (tx *transaction) CreateCategory(c Category) (Category, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.categories[c.ID]; exists {
		return Category{}, domain.ConflictError{Entity: domain.EntityCategory, Detail: "category " + c.ID + " already exists"}
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.categories[c.ID] = c
	tx.recordChange(Change{Entity: domain.EntityCategory, Action: domain.ActionCreate, After: c})
	return c, nil
}

// DeleteCategory removes a category.
func (tx *transaction) DeleteCategory(id string) error {
	current, ok := tx.state.categories[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityCategory, ID: id}
	}
	delete(tx.state.categories, id)
	tx.recordChange(Change{Entity: domain.EntityCategory, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateJudge stores a new judge.
func (tx *transaction) CreateJudge(j Judge) (Judge, error) {
	if j.ID == "" {
		j.ID = tx.store.newID()
	}
	if _, exists := tx.state.judges[j.ID]; exists {
		return Judge{}, domain.ConflictError{Entity: domain.EntityJudge, Detail: "judge " + j.ID + " already exists"}
	}
	j.CreatedAt = tx.now
	j.UpdatedAt = tx.now
	tx.state.judges[j.ID] = j
	tx.recordChange(Change{Entity: domain.EntityJudge, Action: domain.ActionCreate, After: j})
	return j, nil
}

// DeleteJudge removes a judge.
func (tx *transaction) DeleteJudge(id string) error {
	current, ok := tx.state.judges[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityJudge, ID: id}
	}
	delete(tx.state.judges, id)
	tx.recordChange(Change{Entity: domain.EntityJudge, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateCandidate stores a new candidate row within the transaction.
func (tx *transaction) CreateCandidate(c Candidate) (Candidate, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.candidates[c.ID]; exists {
		return Candidate{}, domain.ConflictError{Entity: domain.EntityCandidate, Detail: "candidate " + c.ID + " already exists"}
	}
	if _, ok := tx.state.rounds[c.RoundID]; !ok {
		return Candidate{}, domain.NotFoundError{Entity: domain.EntityRound, ID: c.RoundID}
	}
	for _, other := range tx.state.candidates {
		if other.RoundID == c.RoundID && other.RegistrationNumber == c.RegistrationNumber {
			return Candidate{}, domain.ConflictError{
				Entity: domain.EntityCandidate,
				Detail: "registration number " + c.RegistrationNumber + " already taken in round " + c.RoundID,
			}
		}
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.candidates[c.ID] = cloneCandidate(c)
	tx.recordChange(Change{Entity: domain.EntityCandidate, Action: domain.ActionCreate, After: cloneCandidate(c)})
	return cloneCandidate(c), nil
}

// UpdateCandidate mutates a candidate using the provided mutator function.
func (tx *transaction) UpdateCandidate(id string, mutator func(*Candidate) error) (Candidate, error) {
	current, ok := tx.state.candidates[id]
	if !ok {
		return Candidate{}, domain.NotFoundError{Entity: domain.EntityCandidate, ID: id}
	}
	before := cloneCandidate(current)
	if err := mutator(&current); err != nil {
		return Candidate{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.candidates[id] = cloneCandidate(current)
	tx.recordChange(Change{Entity: domain.EntityCandidate, Action: domain.ActionUpdate, Before: before, After: cloneCandidate(current)})
	return cloneCandidate(current), nil
}

// DeleteCandidate removes a candidate row and cascade-deletes its scores,
// matching the relational foreign-key behavior.
func (tx *transaction) DeleteCandidate(id string) error {
	current, ok := tx.state.candidates[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityCandidate, ID: id}
	}
	for scoreID, score := range tx.state.scores {
		if score.CandidateID == id {
			delete(tx.state.scores, scoreID)
			tx.recordChange(Change{Entity: domain.EntityScore, Action: domain.ActionDelete, Before: score})
		}
	}
	delete(tx.state.candidates, id)
	tx.recordChange(Change{Entity: domain.EntityCandidate, Action: domain.ActionDelete, Before: cloneCandidate(current)})
	return nil
}

// ReplaceJudgeScores swaps one judge's rows for a candidate+round with the
// supplied set. The derived question totals are recomputed here so callers
// can never set them independently.
func (tx *transaction) ReplaceJudgeScores(candidateID, judgeID, roundID string, scores []Score) ([]Score, error) {
	if _, ok := tx.state.candidates[candidateID]; !ok {
		return nil, domain.NotFoundError{Entity: domain.EntityCandidate, ID: candidateID}
	}
	if _, ok := tx.state.judges[judgeID]; !ok {
		return nil, domain.NotFoundError{Entity: domain.EntityJudge, ID: judgeID}
	}
	if _, ok := tx.state.rounds[roundID]; !ok {
		return nil, domain.NotFoundError{Entity: domain.EntityRound, ID: roundID}
	}
	for scoreID, existing := range tx.state.scores {
		if existing.CandidateID == candidateID && existing.JudgeID == judgeID && existing.RoundID == roundID {
			delete(tx.state.scores, scoreID)
			tx.recordChange(Change{Entity: domain.EntityScore, Action: domain.ActionDelete, Before: existing})
		}
	}
	out := make([]Score, 0, len(scores))
	for _, score := range scores {
		score.ID = tx.store.newID()
		score.CandidateID = candidateID
		score.JudgeID = judgeID
		score.RoundID = roundID
		score.TotalScore = score.Total()
		score.CreatedAt = tx.now
		score.UpdatedAt = tx.now
		tx.state.scores[score.ID] = score
		tx.recordChange(Change{Entity: domain.EntityScore, Action: domain.ActionCreate, After: score})
		out = append(out, score)
	}
	return out, nil
}

// UpsertProgression inserts or updates the record keyed on
// (candidate_id, to_round_id).
func (tx *transaction) UpsertProgression(record ProgressionRecord) (ProgressionRecord, error) {
	if _, ok := tx.state.candidates[record.CandidateID]; !ok {
		return ProgressionRecord{}, domain.NotFoundError{Entity: domain.EntityCandidate, ID: record.CandidateID}
	}
	for id, existing := range tx.state.progressions {
		if existing.CandidateID == record.CandidateID && existing.ToRoundID == record.ToRoundID {
			before := existing
			existing.FromRoundID = record.FromRoundID
			existing.QualifiedBy = record.QualifiedBy
			existing.QualifiedAt = record.QualifiedAt
			existing.Status = record.Status
			existing.Notes = record.Notes
			existing.UpdatedAt = tx.now
			tx.state.progressions[id] = existing
			tx.recordChange(Change{Entity: domain.EntityProgression, Action: domain.ActionUpdate, Before: before, After: existing})
			return existing, nil
		}
	}
	if record.ID == "" {
		record.ID = tx.store.newID()
	}
	record.CreatedAt = tx.now
	record.UpdatedAt = tx.now
	tx.state.progressions[record.ID] = record
	tx.recordChange(Change{Entity: domain.EntityProgression, Action: domain.ActionCreate, After: record})
	return record, nil
}

// DeleteProgression removes a progression record.
func (tx *transaction) DeleteProgression(id string) error {
	current, ok := tx.state.progressions[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityProgression, ID: id}
	}
	delete(tx.state.progressions, id)
	tx.recordChange(Change{Entity: domain.EntityProgression, Action: domain.ActionDelete, Before: current})
	return nil
}

// FindRound exposes round lookup within the transaction scope.
func (tx *transaction) FindRound(id string) (Round, bool) {
	r, ok := tx.state.rounds[id]
	return r, ok
}

// FindCandidate exposes candidate lookup within the transaction scope.
func (tx *transaction) FindCandidate(id string) (Candidate, bool) {
	c, ok := tx.state.candidates[id]
	if !ok {
		return Candidate{}, false
	}
	return cloneCandidate(c), true
}

// FindJudge exposes judge lookup within the transaction scope.
func (tx *transaction) FindJudge(id string) (Judge, bool) {
	j, ok := tx.state.judges[id]
	return j, ok
}

// FindCategory exposes category lookup within the transaction scope.
func (tx *transaction) FindCategory(id string) (Category, bool) {
	c, ok := tx.state.categories[id]
	return c, ok
}
