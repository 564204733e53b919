package domain

import (
	"math"
	"testing"
)

func judgeSheet(candidateID, judgeID, roundID string, questionTotals [QuestionsPerRound]int) []Score {
	out := make([]Score, 0, QuestionsPerRound)
	for i, total := range questionTotals {
		out = append(out, Score{
			CandidateID:    candidateID,
			JudgeID:        judgeID,
			RoundID:        roundID,
			QuestionNumber: i + 1,
			TotalScore:     total,
		})
	}
	return out
}

func TestSummarizeMeanOfJudges(t *testing.T) {
	var scores []Score
	// Per-judge totals 20, 24, 28.
	scores = append(scores, judgeSheet("c1", "j1", "r1", [QuestionsPerRound]int{4, 4, 4, 4, 4})...)
	scores = append(scores, judgeSheet("c1", "j2", "r1", [QuestionsPerRound]int{5, 5, 5, 5, 4})...)
	scores = append(scores, judgeSheet("c1", "j3", "r1", [QuestionsPerRound]int{6, 6, 6, 6, 4})...)

	summary := Summarize("c1", "r1", scores, DefaultJudgingPolicy())
	if summary.JudgesCount != 3 {
		t.Fatalf("judges count = %d, want 3", summary.JudgesCount)
	}
	if summary.TotalScore != 24.0 {
		t.Fatalf("total score = %v, want 24.0", summary.TotalScore)
	}
	if math.Abs(summary.AveragePerQuestion-4.8) > 1e-9 {
		t.Fatalf("average per question = %v, want 4.8", summary.AveragePerQuestion)
	}
	if !summary.IsComplete {
		t.Fatalf("expected completeness at 3 judges")
	}
}

func TestSummarizePartialSheet(t *testing.T) {
	scores := []Score{
		{CandidateID: "c1", JudgeID: "j1", RoundID: "r1", QuestionNumber: 1, TotalScore: 6},
		{CandidateID: "c1", JudgeID: "j1", RoundID: "r1", QuestionNumber: 2, TotalScore: 4},
	}
	summary := Summarize("c1", "r1", scores, DefaultJudgingPolicy())
	if summary.JudgesCount != 1 {
		t.Fatalf("judges count = %d, want 1", summary.JudgesCount)
	}
	if summary.TotalScore != 10.0 {
		t.Fatalf("total score = %v, want 10.0 from a partial sheet", summary.TotalScore)
	}
	if summary.IsComplete {
		t.Fatalf("one judge must not satisfy a three-judge floor")
	}
}

func TestSummarizeIgnoresOtherCandidatesAndRounds(t *testing.T) {
	scores := []Score{
		{CandidateID: "c1", JudgeID: "j1", RoundID: "r1", QuestionNumber: 1, TotalScore: 6},
		{CandidateID: "c2", JudgeID: "j1", RoundID: "r1", QuestionNumber: 1, TotalScore: 1},
		{CandidateID: "c1", JudgeID: "j1", RoundID: "r2", QuestionNumber: 1, TotalScore: 1},
	}
	summary := Summarize("c1", "r1", scores, DefaultJudgingPolicy())
	if summary.TotalScore != 6.0 {
		t.Fatalf("total score = %v, want 6.0", summary.TotalScore)
	}
}

func TestSummarizeNoScores(t *testing.T) {
	summary := Summarize("c1", "r1", nil, DefaultJudgingPolicy())
	if summary.JudgesCount != 0 || summary.TotalScore != 0 || summary.IsComplete {
		t.Fatalf("unexpected summary for empty scores: %+v", summary)
	}
}

func TestSummarizeCompletenessFloorIsConfigurable(t *testing.T) {
	scores := judgeSheet("c1", "j1", "r1", [QuestionsPerRound]int{6, 6, 6, 6, 6})
	policy := JudgingPolicy{MinJudges: 1}
	summary := Summarize("c1", "r1", scores, policy)
	if !summary.IsComplete {
		t.Fatalf("expected completeness with a single-judge floor")
	}
	if summary.TotalScore != float64(MaxJudgeTotal) {
		t.Fatalf("total score = %v, want %d", summary.TotalScore, MaxJudgeTotal)
	}
}

func TestScoreBounds(t *testing.T) {
	good := Score{QuestionNumber: 3, Accuracy: 2, Rules: 2, Fluency: 1, Voice: 1}
	if !good.InBounds() {
		t.Fatalf("expected in-bounds score")
	}
	if got := good.Total(); got != MaxQuestionScore {
		t.Fatalf("total = %d, want %d", got, MaxQuestionScore)
	}
	bad := []Score{
		{QuestionNumber: 0, Accuracy: 1},
		{QuestionNumber: 6, Accuracy: 1},
		{QuestionNumber: 1, Accuracy: 3},
		{QuestionNumber: 1, Rules: -1},
		{QuestionNumber: 1, Fluency: 2},
		{QuestionNumber: 1, Voice: 2},
	}
	for i, s := range bad {
		if s.InBounds() {
			t.Fatalf("case %d: expected out-of-bounds score %+v", i, s)
		}
	}
}

func TestSubmitScoreInputValidation(t *testing.T) {
	in := SubmitScoreInput{CandidateID: "c1", JudgeID: "j1", RoundID: "r1"}
	if err := in.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	in.Questions[2].Accuracy = 3
	if err := in.Validate(); err == nil {
		t.Fatalf("expected sub-mark range violation")
	}
	missing := SubmitScoreInput{JudgeID: "j1", RoundID: "r1"}
	if err := missing.Validate(); err == nil {
		t.Fatalf("expected missing candidate id violation")
	}
}

func TestCandidateRootID(t *testing.T) {
	root := Candidate{Base: Base{ID: "orig"}, IsOriginal: true}
	if root.RootID() != "orig" {
		t.Fatalf("root id = %q, want orig", root.RootID())
	}
	origID := "orig"
	clone := Candidate{Base: Base{ID: "clone"}, IsOriginal: false, OriginalCandidateID: &origID}
	if clone.RootID() != "orig" {
		t.Fatalf("clone root id = %q, want orig", clone.RootID())
	}
}
