package core

import "recitecore/pkg/domain"

type (
	EntityType         = domain.EntityType
	CandidateStatus    = domain.CandidateStatus
	ProgressionStatus  = domain.ProgressionStatus
	Severity           = domain.Severity
	Base               = domain.Base
	Round              = domain.Round
	Category           = domain.Category
	Judge              = domain.Judge
	Candidate          = domain.Candidate
	Score              = domain.Score
	ProgressionRecord  = domain.ProgressionRecord
	ScoreSummary       = domain.ScoreSummary
	JudgingPolicy      = domain.JudgingPolicy
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError

	Rule        = domain.Rule
	RulesEngine = domain.RulesEngine

	QuestionMarks          = domain.QuestionMarks
	RegisterCandidateInput = domain.RegisterCandidateInput
	SubmitScoreInput       = domain.SubmitScoreInput
)

// DefaultJudgingPolicy mirrors the domain default for callers working at
// the service layer.
func DefaultJudgingPolicy() JudgingPolicy { return domain.DefaultJudgingPolicy() }

const (
	EntityRound       = domain.EntityRound
	EntityCategory    = domain.EntityCategory
	EntityJudge       = domain.EntityJudge
	EntityCandidate   = domain.EntityCandidate
	EntityScore       = domain.EntityScore
	EntityProgression = domain.EntityProgression
)

const (
	StatusActive       = domain.StatusActive
	StatusQualified    = domain.StatusQualified
	StatusEliminated   = domain.StatusEliminated
	StatusDisqualified = domain.StatusDisqualified
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
