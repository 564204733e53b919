package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testClock = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	store := NewMemoryStore(DefaultRulesEngine())
	base := []ServiceOption{WithClock(ClockFunc(func() time.Time { return testClock }))}
	return NewService(store, append(base, opts...)...)
}

func mustCreateRound(t *testing.T, svc *Service, name string, order int, active bool) Round {
	t.Helper()
	round, _, err := svc.CreateRound(context.Background(), Round{Name: name, OrderIndex: order, IsActive: active})
	require.NoError(t, err)
	return round
}

func mustRegister(t *testing.T, svc *Service, roundID, name string) Candidate {
	t.Helper()
	candidate, _, err := svc.RegisterCandidate(context.Background(), RegisterCandidateInput{
		Name:    name,
		RoundID: roundID,
	})
	require.NoError(t, err)
	return candidate
}

func mustCreateJudge(t *testing.T, svc *Service, name string) Judge {
	t.Helper()
	judge, _, err := svc.CreateJudge(context.Background(), Judge{Name: name})
	require.NoError(t, err)
	return judge
}

func perfectMarks() [5]QuestionMarks {
	var marks [5]QuestionMarks
	for i := range marks {
		marks[i] = QuestionMarks{Accuracy: 2, Rules: 2, Fluency: 1, Voice: 1}
	}
	return marks
}

func uniformMarks(accuracy, rules, fluency, voice int) [5]QuestionMarks {
	var marks [5]QuestionMarks
	for i := range marks {
		marks[i] = QuestionMarks{Accuracy: accuracy, Rules: rules, Fluency: fluency, Voice: voice}
	}
	return marks
}
