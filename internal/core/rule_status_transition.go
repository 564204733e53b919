package core

import (
	"context"
	"fmt"

	"recitecore/pkg/domain"
)

// StatusTransitionRule blocks candidate writes that carry an unknown status.
func StatusTransitionRule() domain.Rule {
	return statusTransitionRule{}
}

type statusTransitionRule struct{}

func (statusTransitionRule) Name() string { return "status_transition" }

func (statusTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityCandidate || change.Action == domain.ActionDelete {
			continue
		}
		candidate, ok := change.After.(domain.Candidate)
		if !ok {
			continue
		}
		if !candidate.Status.Valid() {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "status_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("candidate %s is set to unknown status %s", candidate.ID, candidate.Status),
				Entity:   domain.EntityCandidate,
				EntityID: candidate.ID,
			})
		}
	}
	return res, nil
}
