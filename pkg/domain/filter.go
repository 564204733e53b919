package domain

import "strings"

// CandidatePredicate is one typed filter condition over candidates.
type CandidatePredicate func(Candidate) bool

// CandidateFilter composes typed predicates conjunctively. It replaces
// string-assembled query fragments: each With* call appends one predicate
// and the zero value matches everything.
type CandidateFilter struct {
	predicates []CandidatePredicate
}

// NewCandidateFilter returns an empty filter matching all candidates.
func NewCandidateFilter() *CandidateFilter { return &CandidateFilter{} }

// WithRound restricts matches to the given round.
func (f *CandidateFilter) WithRound(roundID string) *CandidateFilter {
	f.predicates = append(f.predicates, func(c Candidate) bool { return c.RoundID == roundID })
	return f
}

// WithCategory restricts matches to the given category.
func (f *CandidateFilter) WithCategory(categoryID string) *CandidateFilter {
	f.predicates = append(f.predicates, func(c Candidate) bool { return c.CategoryID == categoryID })
	return f
}

// WithStatus restricts matches to the given lifecycle status.
func (f *CandidateFilter) WithStatus(status CandidateStatus) *CandidateFilter {
	f.predicates = append(f.predicates, func(c Candidate) bool { return c.Status == status })
	return f
}

// WithSearch restricts matches to candidates whose name or registration
// number contains the term, case-insensitively.
func (f *CandidateFilter) WithSearch(term string) *CandidateFilter {
	needle := strings.ToLower(strings.TrimSpace(term))
	f.predicates = append(f.predicates, func(c Candidate) bool {
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.RegistrationNumber), needle)
	})
	return f
}

// With appends an arbitrary predicate.
func (f *CandidateFilter) With(p CandidatePredicate) *CandidateFilter {
	f.predicates = append(f.predicates, p)
	return f
}

// Match reports whether the candidate satisfies every predicate.
func (f *CandidateFilter) Match(c Candidate) bool {
	if f == nil {
		return true
	}
	for _, p := range f.predicates {
		if !p(c) {
			return false
		}
	}
	return true
}

// Apply returns the subset of candidates matching the filter, preserving order.
func (f *CandidateFilter) Apply(candidates []Candidate) []Candidate {
	if f == nil || len(f.predicates) == 0 {
		return candidates
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}
