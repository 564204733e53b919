package core

import "recitecore/pkg/domain"

// Summarize aggregates one candidate's raw score rows for one round into a
// ScoreSummary. It is a pure read: no side effects, and it tolerates
// partial sheets mid-flight. Promotion gating on completeness belongs to
// the caller, not here.
func Summarize(view domain.TransactionView, candidateID, roundID string, policy JudgingPolicy) (ScoreSummary, error) {
	if _, ok := view.FindCandidate(candidateID); !ok {
		return ScoreSummary{}, domain.NotFoundError{Entity: EntityCandidate, ID: candidateID}
	}
	if _, ok := view.FindRound(roundID); !ok {
		return ScoreSummary{}, domain.NotFoundError{Entity: EntityRound, ID: roundID}
	}
	return domain.Summarize(candidateID, roundID, view.ListScores(), policy), nil
}
