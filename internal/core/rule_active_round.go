package core

import (
	"context"
	"fmt"
	"strings"

	"recitecore/pkg/domain"
)

// ActiveRoundRule warns when a commit leaves more than one round active.
// Running several rounds in parallel is permitted, so the violation does
// not block, but operators should see it.
func ActiveRoundRule() domain.Rule {
	return activeRoundRule{}
}

type activeRoundRule struct{}

func (activeRoundRule) Name() string { return "active_round" }

func (activeRoundRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	relevant := false
	for _, change := range changes {
		if change.Entity == domain.EntityRound {
			relevant = true
			break
		}
	}
	if !relevant {
		return res, nil
	}

	var active []string
	for _, round := range view.ListRounds() {
		if round.IsActive {
			active = append(active, round.Name)
		}
	}
	if len(active) > 1 {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "active_round",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("%d rounds active at once: %s", len(active), strings.Join(active, ", ")),
			Entity:   domain.EntityRound,
		})
	}
	return res, nil
}

// DefaultRulesEngine returns a rules engine loaded with the standard rule set.
func DefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(StatusTransitionRule())
	engine.Register(RegistrationUniqueRule())
	engine.Register(ChainIntegrityRule())
	engine.Register(ScoreBoundsRule())
	engine.Register(ActiveRoundRule())
	return engine
}
