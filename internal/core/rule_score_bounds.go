package core

import (
	"context"
	"fmt"

	"recitecore/pkg/domain"
)

// ScoreBoundsRule blocks score writes that fall outside the marking scheme
// or carry a stored total that disagrees with the sub-marks.
func ScoreBoundsRule() domain.Rule {
	return scoreBoundsRule{}
}

type scoreBoundsRule struct{}

func (scoreBoundsRule) Name() string { return "score_bounds" }

func (scoreBoundsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityScore || change.Action == domain.ActionDelete {
			continue
		}
		score, ok := change.After.(domain.Score)
		if !ok {
			continue
		}
		if score.QuestionNumber < 1 || score.QuestionNumber > domain.QuestionsPerRound {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "score_bounds",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("score %s targets question %d outside 1..%d", score.ID, score.QuestionNumber, domain.QuestionsPerRound),
				Entity:   domain.EntityScore,
				EntityID: score.ID,
			})
		}
		if !score.InBounds() {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "score_bounds",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("score %s has sub-marks outside the marking scheme", score.ID),
				Entity:   domain.EntityScore,
				EntityID: score.ID,
			})
		}
		if score.TotalScore != score.Total() {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "score_bounds",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("score %s stores total %d but sub-marks sum to %d", score.ID, score.TotalScore, score.Total()),
				Entity:   domain.EntityScore,
				EntityID: score.ID,
			})
		}
	}
	return res, nil
}
