package core

import (
	"context"
	"fmt"
	"time"

	"recitecore/pkg/domain"
)

// Service exposes the transactional operations of the progression and
// scoring engine on top of a persistent store.
type Service struct {
	store   domain.PersistentStore
	policy  JudgingPolicy
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	clock   Clock
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithJudgingPolicy overrides the default scoring policy.
func WithJudgingPolicy(policy JudgingPolicy) ServiceOption {
	return func(s *Service) { s.policy = policy }
}

// WithAuditRecorder attaches an audit sink to every service operation.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithMetricsRecorder attaches a metrics sink to every service operation.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer attaches a tracer to every service operation.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the time source used for audit and progression stamps.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	svc := &Service{
		store:   store,
		policy:  DefaultJudgingPolicy(),
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// Policy returns the judging policy in effect.
func (s *Service) Policy() JudgingPolicy {
	return s.policy
}

type opRecord struct {
	entity   domain.EntityType
	action   domain.Action
	entityID string
	actor    string
}

// instrument opens a span for operation and returns the finish callback
// that closes the span, observes metrics, and records the audit entry.
func (s *Service) instrument(ctx context.Context, operation string) (context.Context, func(rec opRecord, err error)) {
	started := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	return ctx, func(rec opRecord, err error) {
		duration := s.clock.Now().Sub(started)
		span.End(err)
		s.metrics.Observe(ctx, operation, err == nil, duration)
		entry := AuditEntry{
			Operation:  operation,
			Entity:     rec.entity,
			Action:     rec.action,
			EntityID:   rec.entityID,
			Actor:      rec.actor,
			Status:     AuditStatusSuccess,
			Duration:   duration,
			OccurredAt: started,
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}
}

// CreateRound persists a new round.
func (s *Service) CreateRound(ctx context.Context, round Round) (Round, Result, error) {
	ctx, finish := s.instrument(ctx, "create_round")
	var created Round
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateRound(round)
		return err
	})
	finish(opRecord{entity: EntityRound, action: domain.ActionCreate, entityID: created.ID}, err)
	return created, res, err
}

// SetRoundActive toggles the active flag on a round.
func (s *Service) SetRoundActive(ctx context.Context, roundID string, active bool) (Round, Result, error) {
	ctx, finish := s.instrument(ctx, "set_round_active")
	var updated Round
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateRound(roundID, func(r *Round) error {
			r.IsActive = active
			return nil
		})
		return err
	})
	finish(opRecord{entity: EntityRound, action: domain.ActionUpdate, entityID: roundID}, err)
	return updated, res, err
}

// DeleteRound removes a round. Candidates registered in the round keep
// their rows; progression resolution treats the resulting gap as terminal.
func (s *Service) DeleteRound(ctx context.Context, roundID string) (Result, error) {
	ctx, finish := s.instrument(ctx, "delete_round")
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteRound(roundID)
	})
	finish(opRecord{entity: EntityRound, action: domain.ActionDelete, entityID: roundID}, err)
	return res, err
}

// CreateCategory persists a new category.
func (s *Service) CreateCategory(ctx context.Context, category Category) (Category, Result, error) {
	ctx, finish := s.instrument(ctx, "create_category")
	var created Category
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateCategory(category)
		return err
	})
	finish(opRecord{entity: EntityCategory, action: domain.ActionCreate, entityID: created.ID}, err)
	return created, res, err
}

// CreateJudge persists a new judge.
func (s *Service) CreateJudge(ctx context.Context, judge Judge) (Judge, Result, error) {
	ctx, finish := s.instrument(ctx, "create_judge")
	var created Judge
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateJudge(judge)
		return err
	})
	finish(opRecord{entity: EntityJudge, action: domain.ActionCreate, entityID: created.ID}, err)
	return created, res, err
}

// RegisterCandidate creates an original candidate in the given round with a
// freshly allocated registration number.
func (s *Service) RegisterCandidate(ctx context.Context, input RegisterCandidateInput) (Candidate, Result, error) {
	ctx, finish := s.instrument(ctx, "register_candidate")
	var created Candidate
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := input.Validate(); err != nil {
			return err
		}
		round, ok := tx.FindRound(input.RoundID)
		if !ok {
			return domain.NotFoundError{Entity: EntityRound, ID: input.RoundID}
		}
		if input.CategoryID != "" {
			if _, ok := tx.FindCategory(input.CategoryID); !ok {
				return domain.NotFoundError{Entity: EntityCategory, ID: input.CategoryID}
			}
		}
		candidate := Candidate{
			RegistrationNumber: AllocateRegistration(tx.Snapshot(), round),
			Name:               input.Name,
			Contact:            input.Contact,
			CategoryID:         input.CategoryID,
			RoundID:            round.ID,
			Status:             StatusActive,
			IsOriginal:         true,
		}
		var err error
		created, err = tx.CreateCandidate(candidate)
		return err
	})
	finish(opRecord{entity: EntityCandidate, action: domain.ActionCreate, entityID: created.ID}, err)
	return created, res, err
}

// TransitionStatus moves a candidate to newStatus, applying the promotion
// or demotion side effects the edge implies. The whole transition commits
// or rolls back as one unit.
func (s *Service) TransitionStatus(ctx context.Context, candidateID string, newStatus CandidateStatus, actorID string) (TransitionResult, Result, error) {
	ctx, finish := s.instrument(ctx, "transition_status")
	now := s.clock.Now()
	var outcome TransitionResult
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if newStatus == StatusQualified && s.policy.RequireCompleteScoring {
			candidate, ok := tx.FindCandidate(candidateID)
			if !ok {
				return domain.NotFoundError{Entity: EntityCandidate, ID: candidateID}
			}
			// An already-qualified candidate short-circuits as a no-op;
			// the gate only guards genuine promotions.
			if candidate.Status != StatusQualified {
				summary, err := Summarize(tx.Snapshot(), candidateID, candidate.RoundID, s.policy)
				if err != nil {
					return err
				}
				if !summary.IsComplete {
					return domain.IncompleteScoringError{
						CandidateID: candidateID,
						JudgesCount: summary.JudgesCount,
						Required:    s.policy.MinJudges,
					}
				}
			}
		}
		var err error
		outcome, err = applyTransition(tx, candidateID, newStatus, actorID, now)
		return err
	})
	finish(opRecord{entity: EntityCandidate, action: domain.ActionUpdate, entityID: candidateID, actor: actorID}, err)
	return outcome, res, err
}

// QualifyOutcome reports the result of one candidate in a batch promotion.
type QualifyOutcome struct {
	CandidateID string           `json:"candidate_id"`
	Transition  TransitionResult `json:"transition"`
	Err         error            `json:"-"`
}

// QualifyBatch promotes the given candidates one by one, each in its own
// transaction. A failure stops neither the batch nor earlier commits; the
// caller inspects the per-candidate outcomes.
func (s *Service) QualifyBatch(ctx context.Context, actorID string, candidateIDs ...string) []QualifyOutcome {
	outcomes := make([]QualifyOutcome, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		transition, _, err := s.TransitionStatus(ctx, id, StatusQualified, actorID)
		outcomes = append(outcomes, QualifyOutcome{CandidateID: id, Transition: transition, Err: err})
	}
	return outcomes
}

// SubmitScore replaces one judge's marks for a candidate in a round and
// returns the refreshed aggregate. Resubmission by the same judge is
// idempotent at the row level: prior rows are swapped out, never stacked.
func (s *Service) SubmitScore(ctx context.Context, input SubmitScoreInput) (ScoreSummary, Result, error) {
	ctx, finish := s.instrument(ctx, "submit_score")
	var summary ScoreSummary
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := input.Validate(); err != nil {
			return err
		}
		scores := make([]Score, 0, domain.QuestionsPerRound)
		for i, marks := range input.Questions {
			scores = append(scores, Score{
				CandidateID:    input.CandidateID,
				JudgeID:        input.JudgeID,
				RoundID:        input.RoundID,
				QuestionNumber: i + 1,
				Accuracy:       marks.Accuracy,
				Rules:          marks.Rules,
				Fluency:        marks.Fluency,
				Voice:          marks.Voice,
			})
		}
		if _, err := tx.ReplaceJudgeScores(input.CandidateID, input.JudgeID, input.RoundID, scores); err != nil {
			return err
		}
		var err error
		summary, err = Summarize(tx.Snapshot(), input.CandidateID, input.RoundID, s.policy)
		return err
	})
	finish(opRecord{entity: EntityScore, action: domain.ActionUpdate, entityID: input.CandidateID, actor: input.JudgeID}, err)
	return summary, res, err
}

// GetScoreSummary aggregates the stored marks for a candidate in a round.
func (s *Service) GetScoreSummary(ctx context.Context, candidateID, roundID string) (ScoreSummary, error) {
	ctx, finish := s.instrument(ctx, "get_score_summary")
	var summary ScoreSummary
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		var err error
		summary, err = Summarize(view, candidateID, roundID, s.policy)
		return err
	})
	finish(opRecord{entity: EntityScore, entityID: candidateID}, err)
	return summary, err
}

// ProgressionHistory returns the audit trail of a candidate's chain, most
// recent first. Any row in the chain resolves to the same history.
func (s *Service) ProgressionHistory(ctx context.Context, candidateID string) ([]ProgressionRecord, error) {
	var records []ProgressionRecord
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		candidate, ok := view.FindCandidate(candidateID)
		if !ok {
			return domain.NotFoundError{Entity: EntityCandidate, ID: candidateID}
		}
		rootID := candidate.RootID()
		if !candidate.IsOriginal {
			root, ok := view.FindCandidate(rootID)
			for hops := 0; ok && !root.IsOriginal && root.OriginalCandidateID != nil; hops++ {
				if hops > len(view.ListRounds()) {
					return fmt.Errorf("clone chain for candidate %s does not terminate", candidateID)
				}
				root, ok = view.FindCandidate(*root.OriginalCandidateID)
			}
			if !ok {
				return domain.NotFoundError{Entity: EntityCandidate, ID: rootID}
			}
			rootID = root.ID
		}
		for _, record := range view.ListProgressionRecords() {
			if record.CandidateID == rootID {
				records = append(records, record)
			}
		}
		return nil
	})
	return records, err
}

// ActiveRound returns the lowest-ordered active round, if any.
func (s *Service) ActiveRound(ctx context.Context) (Round, bool, error) {
	var round Round
	var ok bool
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		round, ok = ActiveRound(view)
		return nil
	})
	return round, ok, err
}

// NextRoundOf resolves the round immediately after the given one. A gap in
// the ordering means there is no next round.
func (s *Service) NextRoundOf(ctx context.Context, roundID string) (Round, bool, error) {
	var round Round
	var ok bool
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		var err error
		round, ok, err = NextRound(view, roundID)
		return err
	})
	return round, ok, err
}

// ListCandidates returns candidates matching the filter, or all candidates
// when filter is nil.
func (s *Service) ListCandidates(ctx context.Context, filter *domain.CandidateFilter) ([]Candidate, error) {
	var out []Candidate
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = filter.Apply(view.ListCandidates())
		return nil
	})
	return out, err
}

// GetCandidate fetches one candidate row.
func (s *Service) GetCandidate(ctx context.Context, id string) (Candidate, error) {
	candidate, ok := s.store.GetCandidate(id)
	if !ok {
		return Candidate{}, domain.NotFoundError{Entity: EntityCandidate, ID: id}
	}
	return candidate, nil
}

// GetRound fetches one round.
func (s *Service) GetRound(ctx context.Context, id string) (Round, error) {
	round, ok := s.store.GetRound(id)
	if !ok {
		return Round{}, domain.NotFoundError{Entity: EntityRound, ID: id}
	}
	return round, nil
}

// ListRounds returns all rounds ordered by their progression index.
func (s *Service) ListRounds(ctx context.Context) []Round {
	return s.store.ListRounds()
}

// ListJudges returns all judges.
func (s *Service) ListJudges(ctx context.Context) []Judge {
	return s.store.ListJudges()
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) []Category {
	return s.store.ListCategories()
}
