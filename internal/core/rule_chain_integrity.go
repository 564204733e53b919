package core

import (
	"context"
	"fmt"

	"recitecore/pkg/domain"
)

// ChainIntegrityRule blocks commits that break the clone chain: a clone
// whose root pointer is missing or dangling, an original carrying a root
// pointer, or a clone whose root pointer lands on another clone. Root
// pointers resolve in exactly one hop.
func ChainIntegrityRule() domain.Rule {
	return chainIntegrityRule{}
}

type chainIntegrityRule struct{}

func (chainIntegrityRule) Name() string { return "chain_integrity" }

func (chainIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	relevant := false
	for _, change := range changes {
		if change.Entity == domain.EntityCandidate {
			relevant = true
			break
		}
	}
	if !relevant {
		return res, nil
	}

	candidates := view.ListCandidates()
	for _, c := range candidates {
		if c.IsOriginal {
			if c.OriginalCandidateID != nil {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "chain_integrity",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("original candidate %s carries a root pointer", c.ID),
					Entity:   domain.EntityCandidate,
					EntityID: c.ID,
				})
			}
			continue
		}
		if c.OriginalCandidateID == nil {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "chain_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("clone %s has no root pointer", c.ID),
				Entity:   domain.EntityCandidate,
				EntityID: c.ID,
			})
			continue
		}
		root, ok := view.FindCandidate(*c.OriginalCandidateID)
		if !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "chain_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("clone %s points at missing candidate %s", c.ID, *c.OriginalCandidateID),
				Entity:   domain.EntityCandidate,
				EntityID: c.ID,
			})
			continue
		}
		if !root.IsOriginal {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "chain_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("clone %s root pointer resolves to clone %s, not an original", c.ID, root.ID),
				Entity:   domain.EntityCandidate,
				EntityID: c.ID,
			})
		}
	}
	return res, nil
}
