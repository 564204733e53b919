package domain

import (
	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for operation input contracts.
var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultMinJudges is the default judge-completeness floor. It is a policy
// default, not a mechanical constant: competitions override it through
// JudgingPolicy.
const DefaultMinJudges = 3

// JudgingPolicy carries per-competition scoring configuration.
type JudgingPolicy struct {
	// MinJudges is the number of distinct judges required before a
	// candidate's round score is considered final.
	MinJudges int `json:"min_judges" yaml:"min_judges" validate:"min=1"`
	// RequireCompleteScoring gates promotion on the completeness floor.
	// When false the transition engine promotes regardless of judge count
	// and completeness enforcement is left entirely to the caller.
	RequireCompleteScoring bool `json:"require_complete_scoring" yaml:"require_complete_scoring"`
}

// DefaultJudgingPolicy returns the standard three-judge policy. Promotion
// gating is off by default: completeness is reported through ScoreSummary
// and callers opt into enforcement via RequireCompleteScoring.
func DefaultJudgingPolicy() JudgingPolicy {
	return JudgingPolicy{MinJudges: DefaultMinJudges}
}

// Validate checks the policy against its contract.
func (p JudgingPolicy) Validate() error { return validate.Struct(p) }

// QuestionMarks carries one judge's four sub-marks for a single question.
type QuestionMarks struct {
	Accuracy int `json:"accuracy" validate:"min=0,max=2"`
	Rules    int `json:"rules" validate:"min=0,max=2"`
	Fluency  int `json:"fluency" validate:"min=0,max=1"`
	Voice    int `json:"voice" validate:"min=0,max=1"`
}

// Total returns the derived question total.
func (q QuestionMarks) Total() int { return q.Accuracy + q.Rules + q.Fluency + q.Voice }

// SubmitScoreInput is the contract for a judge's score submission. A judge
// always submits the full five-question sheet; resubmission replaces that
// judge's prior rows for the same candidate and round.
type SubmitScoreInput struct {
	CandidateID string                           `json:"candidate_id" validate:"required"`
	JudgeID     string                           `json:"judge_id" validate:"required"`
	RoundID     string                           `json:"round_id" validate:"required"`
	Questions   [QuestionsPerRound]QuestionMarks `json:"questions"`
}

// Validate checks the submission against its contract, including the fixed
// sub-mark ranges of every question.
func (in SubmitScoreInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	for _, q := range in.Questions {
		if err := validate.Struct(q); err != nil {
			return err
		}
	}
	return nil
}

// RegisterCandidateInput is the contract for first-round registration.
// CategoryID is optional; uncategorized registration is allowed and the
// service only verifies the category when one is given.
type RegisterCandidateInput struct {
	Name       string `json:"name" validate:"required"`
	Contact    string `json:"contact" validate:"omitempty,email"`
	CategoryID string `json:"category_id"`
	RoundID    string `json:"round_id" validate:"required"`
}

// Validate checks the registration input against its contract.
func (in RegisterCandidateInput) Validate() error { return validate.Struct(in) }

// ScoreSummary is the aggregate view of one candidate's marks in one round.
// TotalScore is the mean of per-judge totals across however many judges
// have scored so far; it refines live as more judges submit.
type ScoreSummary struct {
	CandidateID        string  `json:"candidate_id"`
	RoundID            string  `json:"round_id"`
	JudgesCount        int     `json:"judges_count"`
	TotalScore         float64 `json:"total_score"`
	AveragePerQuestion float64 `json:"average_per_question"`
	IsComplete         bool    `json:"is_complete"`
}

// Summarize aggregates raw score rows for one candidate+round under the
// given policy. It is a pure function: rows belonging to other candidates
// or rounds are ignored, partial sheets count whatever exists.
func Summarize(candidateID, roundID string, scores []Score, policy JudgingPolicy) ScoreSummary {
	perJudge := make(map[string]int)
	for _, s := range scores {
		if s.CandidateID != candidateID || s.RoundID != roundID {
			continue
		}
		perJudge[s.JudgeID] += s.TotalScore
	}
	summary := ScoreSummary{
		CandidateID: candidateID,
		RoundID:     roundID,
		JudgesCount: len(perJudge),
	}
	if len(perJudge) == 0 {
		return summary
	}
	var sum int
	for _, total := range perJudge {
		sum += total
	}
	summary.TotalScore = float64(sum) / float64(len(perJudge))
	summary.AveragePerQuestion = summary.TotalScore / float64(QuestionsPerRound)
	summary.IsComplete = summary.JudgesCount >= policy.MinJudges
	return summary
}
