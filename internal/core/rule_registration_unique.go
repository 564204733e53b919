package core

import (
	"context"
	"fmt"

	"recitecore/pkg/domain"
)

// RegistrationUniqueRule blocks commits that would leave two candidates in
// the same round with the same registration number, or a candidate with an
// empty one.
func RegistrationUniqueRule() domain.Rule {
	return registrationUniqueRule{}
}

type registrationUniqueRule struct{}

func (registrationUniqueRule) Name() string { return "registration_unique" }

func (registrationUniqueRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	touched := map[string]struct{}{}
	for _, change := range changes {
		if change.Entity != domain.EntityCandidate || change.Action == domain.ActionDelete {
			continue
		}
		candidate, ok := change.After.(domain.Candidate)
		if !ok {
			continue
		}
		touched[candidate.ID] = struct{}{}
		if candidate.RegistrationNumber == "" {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "registration_unique",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("candidate %s has no registration number", candidate.ID),
				Entity:   domain.EntityCandidate,
				EntityID: candidate.ID,
			})
		}
	}
	if len(touched) == 0 {
		return res, nil
	}

	type key struct {
		round string
		reg   string
	}
	counts := map[key]int{}
	for _, c := range view.ListCandidates() {
		counts[key{round: c.RoundID, reg: c.RegistrationNumber}]++
	}
	for _, c := range view.ListCandidates() {
		if _, ok := touched[c.ID]; !ok {
			continue
		}
		if counts[key{round: c.RoundID, reg: c.RegistrationNumber}] > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "registration_unique",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("registration number %s is already taken in round %s", c.RegistrationNumber, c.RoundID),
				Entity:   domain.EntityCandidate,
				EntityID: c.ID,
			})
		}
	}
	return res, nil
}
