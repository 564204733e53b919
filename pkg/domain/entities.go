// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by recitecore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityRound identifies an elimination round record.
	EntityRound EntityType = "round"
	// EntityCategory identifies a candidate category record.
	EntityCategory EntityType = "category"
	// EntityJudge identifies a judge record.
	EntityJudge EntityType = "judge"
	// EntityCandidate identifies a candidate occupancy record.
	EntityCandidate EntityType = "candidate"
	// EntityScore identifies a per-judge per-question score record.
	EntityScore EntityType = "score"
	// EntityProgression identifies a progression audit record.
	EntityProgression EntityType = "progression_record"
)

// CandidateStatus represents the canonical candidate lifecycle states.
type CandidateStatus string

// Canonical candidate statuses. None of them is terminal: administrative
// correction may move a candidate out of any state.
const (
	// StatusActive indicates a candidate currently competing in its round.
	StatusActive CandidateStatus = "active"
	// StatusQualified indicates a candidate advanced to the next round.
	StatusQualified    CandidateStatus = "qualified"
	StatusEliminated   CandidateStatus = "eliminated"
	StatusDisqualified CandidateStatus = "disqualified"
)

// KnownStatuses lists every recognised candidate status.
var KnownStatuses = []CandidateStatus{StatusActive, StatusQualified, StatusEliminated, StatusDisqualified}

// Valid reports whether the status is one of the recognised lifecycle states.
func (s CandidateStatus) Valid() bool {
	for _, known := range KnownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ProgressionStatus describes what a progression record captures.
type ProgressionStatus string

// Progression record statuses written by the transition engine.
const (
	// ProgressionPromoted marks an advancement into to_round_id.
	ProgressionPromoted ProgressionStatus = "promoted"
	// ProgressionReversed marks a demotion that rolled a promotion back.
	ProgressionReversed ProgressionStatus = "reversed"
	// ProgressionStatusChange marks a lateral status change within one round.
	ProgressionStatusChange ProgressionStatus = "status_change"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Round represents one ordered elimination stage of the competition.
// OrderIndex is immutable once candidates occupy the round; IsActive gates
// score submission and is mutated only by admin action.
type Round struct {
	Base
	Name       string `json:"name"`
	OrderIndex int    `json:"order_index"`
	IsActive   bool   `json:"is_active"`
}

// Category groups candidates for judging (age bracket, memorization level).
type Category struct {
	Base
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Judge identifies a scoring actor. Scores reference judges by ID.
type Judge struct {
	Base
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Candidate is one occupancy record of a contestant in one round. A
// contestant accumulates one row per round survived; the original row
// anchors the chain and clone rows point back at it through
// OriginalCandidateID.
type Candidate struct {
	Base
	RegistrationNumber  string          `json:"registration_number"`
	Name                string          `json:"name"`
	Contact             string          `json:"contact,omitempty"`
	CategoryID          string          `json:"category_id"`
	RoundID             string          `json:"round_id"`
	Status              CandidateStatus `json:"status"`
	IsOriginal          bool            `json:"is_original"`
	OriginalCandidateID *string         `json:"original_candidate_id"`
}

// RootID returns the id anchoring the candidate's qualification chain:
// the candidate's own id for originals, the propagated root for clones.
func (c Candidate) RootID() string {
	if c.IsOriginal || c.OriginalCandidateID == nil {
		return c.ID
	}
	return *c.OriginalCandidateID
}

// Question sub-mark bounds. Each question is scored on four fixed-range
// criteria whose maxima sum to MaxQuestionScore.
const (
	MaxAccuracyMark = 2
	MaxRulesMark    = 2
	MaxFluencyMark  = 1
	MaxVoiceMark    = 1

	// MaxQuestionScore is the highest total a single question can earn.
	MaxQuestionScore = MaxAccuracyMark + MaxRulesMark + MaxFluencyMark + MaxVoiceMark

	// QuestionsPerRound is the fixed number of questions each judge marks.
	QuestionsPerRound = 5

	// MaxJudgeTotal is the highest total one judge can award a candidate.
	MaxJudgeTotal = MaxQuestionScore * QuestionsPerRound
)

// Score stores one judge's marks for one question of one candidate in one
// round. Unique per (candidate, judge, round, question); TotalScore is
// derived from the four sub-marks and never settable independently.
type Score struct {
	Base
	CandidateID    string `json:"candidate_id"`
	JudgeID        string `json:"judge_id"`
	RoundID        string `json:"round_id"`
	QuestionNumber int    `json:"question_number"`
	Accuracy       int    `json:"accuracy"`
	Rules          int    `json:"rules"`
	Fluency        int    `json:"fluency"`
	Voice          int    `json:"voice"`
	TotalScore     int    `json:"total_score"`
}

// Total computes the derived question total from the sub-marks.
func (s Score) Total() int { return s.Accuracy + s.Rules + s.Fluency + s.Voice }

// InBounds reports whether every sub-mark sits inside its fixed range and
// the question number is within the rubric.
func (s Score) InBounds() bool {
	return s.QuestionNumber >= 1 && s.QuestionNumber <= QuestionsPerRound &&
		s.Accuracy >= 0 && s.Accuracy <= MaxAccuracyMark &&
		s.Rules >= 0 && s.Rules <= MaxRulesMark &&
		s.Fluency >= 0 && s.Fluency <= MaxFluencyMark &&
		s.Voice >= 0 && s.Voice <= MaxVoiceMark
}

// ProgressionRecord is the append-only audit trail of candidate
// transitions. CandidateID always stores the root id of the chain; one row
// per (candidate_id, to_round_id) is maintained by upsert.
type ProgressionRecord struct {
	Base
	CandidateID string            `json:"candidate_id"`
	FromRoundID string            `json:"from_round_id"`
	ToRoundID   string            `json:"to_round_id"`
	QualifiedBy string            `json:"qualified_by"`
	QualifiedAt time.Time         `json:"qualified_at"`
	Status      ProgressionStatus `json:"status"`
	Notes       string            `json:"notes,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
