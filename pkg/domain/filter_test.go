package domain

import "testing"

func TestCandidateFilterConjunction(t *testing.T) {
	candidates := []Candidate{
		{Base: Base{ID: "a"}, Name: "Amina Yusuf", RegistrationNumber: "R01-001", RoundID: "r1", CategoryID: "junior", Status: StatusActive},
		{Base: Base{ID: "b"}, Name: "Bilal Kato", RegistrationNumber: "R01-002", RoundID: "r1", CategoryID: "senior", Status: StatusActive},
		{Base: Base{ID: "c"}, Name: "Amina Kintu", RegistrationNumber: "R02-001", RoundID: "r2", CategoryID: "junior", Status: StatusQualified},
	}

	got := NewCandidateFilter().WithRound("r1").WithStatus(StatusActive).Apply(candidates)
	if len(got) != 2 {
		t.Fatalf("round+status filter matched %d, want 2", len(got))
	}

	got = NewCandidateFilter().WithRound("r1").WithCategory("junior").Apply(candidates)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("round+category filter = %+v, want candidate a", got)
	}
}

func TestCandidateFilterSearch(t *testing.T) {
	candidates := []Candidate{
		{Base: Base{ID: "a"}, Name: "Amina Yusuf", RegistrationNumber: "R01-001"},
		{Base: Base{ID: "b"}, Name: "Bilal Kato", RegistrationNumber: "R01-002"},
	}
	if got := NewCandidateFilter().WithSearch("amina").Apply(candidates); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("name search = %+v", got)
	}
	if got := NewCandidateFilter().WithSearch("r01-002").Apply(candidates); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("registration search = %+v", got)
	}
	if got := NewCandidateFilter().WithSearch("  ").Apply(candidates); len(got) != 2 {
		t.Fatalf("blank search should match all, got %d", len(got))
	}
}

func TestCandidateFilterZeroValueMatchesAll(t *testing.T) {
	candidates := []Candidate{{Base: Base{ID: "a"}}, {Base: Base{ID: "b"}}}
	var f *CandidateFilter
	if !f.Match(candidates[0]) {
		t.Fatalf("nil filter must match")
	}
	if got := NewCandidateFilter().Apply(candidates); len(got) != 2 {
		t.Fatalf("empty filter matched %d, want 2", len(got))
	}
}
