package core

import (
	"fmt"
	"time"

	"recitecore/pkg/domain"
)

// TransitionResult reports the outcome of one status transition.
type TransitionResult struct {
	Candidate Candidate `json:"candidate"`
	// Clone is the row created in the next round on promotion, nil otherwise.
	Clone *Candidate `json:"clone,omitempty"`
	// ClonesDeleted counts descendant rows removed by demotion cleanup.
	ClonesDeleted int `json:"clones_deleted"`
	// NoOp is true when the requested status equaled the current status.
	NoOp bool `json:"no_op"`
}

// applyTransition runs the full transition algorithm inside tx. Side
// effects depend on the edge being traversed, not just the destination:
// entering qualified promotes, leaving qualified demotes, everything else
// is a lateral status change with an audit entry.
func applyTransition(tx domain.Transaction, candidateID string, newStatus CandidateStatus, actorID string, now time.Time) (TransitionResult, error) {
	if !newStatus.Valid() {
		return TransitionResult{}, domain.InvalidTransitionError{Status: newStatus}
	}
	candidate, ok := tx.FindCandidate(candidateID)
	if !ok {
		return TransitionResult{}, domain.NotFoundError{Entity: EntityCandidate, ID: candidateID}
	}
	if candidate.Status == newStatus {
		return TransitionResult{Candidate: candidate, NoOp: true}, nil
	}
	switch {
	case newStatus == StatusQualified:
		return promote(tx, candidate, actorID, now)
	case candidate.Status == StatusQualified:
		return demote(tx, candidate, newStatus, actorID, now)
	default:
		return lateral(tx, candidate, newStatus, actorID, now)
	}
}

// promote advances the candidate: clone into the next round, mark the
// source row qualified, and upsert the audit record. On the terminal round
// there is no next round and no clone; only the status changes.
func promote(tx domain.Transaction, candidate Candidate, actorID string, now time.Time) (TransitionResult, error) {
	next, hasNext, err := NextRound(tx.Snapshot(), candidate.RoundID)
	if err != nil {
		return TransitionResult{}, err
	}

	rootID, err := resolveRoot(tx, candidate)
	if err != nil {
		return TransitionResult{}, err
	}

	var clone *Candidate
	if hasNext {
		created, err := insertClone(tx, candidate, rootID, next)
		if err != nil {
			return TransitionResult{}, err
		}
		clone = &created
	}

	updated, err := tx.UpdateCandidate(candidate.ID, func(c *Candidate) error {
		c.Status = StatusQualified
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}

	record := ProgressionRecord{
		CandidateID: rootID,
		FromRoundID: candidate.RoundID,
		ToRoundID:   candidate.RoundID,
		QualifiedBy: actorID,
		QualifiedAt: now,
		Status:      domain.ProgressionPromoted,
		Notes:       "qualified in terminal round",
	}
	if hasNext {
		record.ToRoundID = next.ID
		record.Notes = ""
	}
	if _, err := tx.UpsertProgression(record); err != nil {
		return TransitionResult{}, err
	}

	return TransitionResult{Candidate: updated, Clone: clone}, nil
}

// insertClone creates the next-round row, retrying exactly once with a
// fresh registration number if the first insert hits a uniqueness conflict.
func insertClone(tx domain.Transaction, candidate Candidate, rootID string, next Round) (Candidate, error) {
	clone := Candidate{
		Name:                candidate.Name,
		Contact:             candidate.Contact,
		CategoryID:          candidate.CategoryID,
		RoundID:             next.ID,
		Status:              StatusActive,
		IsOriginal:          false,
		OriginalCandidateID: &rootID,
	}
	clone.RegistrationNumber = AllocateRegistration(tx.Snapshot(), next)
	created, err := tx.CreateCandidate(clone)
	if err == nil {
		return created, nil
	}
	if !domain.IsConflict(err) {
		return Candidate{}, err
	}
	clone.RegistrationNumber = AllocateRegistration(tx.Snapshot(), next)
	created, err = tx.CreateCandidate(clone)
	if err != nil {
		return Candidate{}, fmt.Errorf("clone insert retry: %w", err)
	}
	return created, nil
}

// demote rolls a promotion back: every descendant row the qualification
// produced is deleted together with the audit records that reference it,
// then the candidate takes its new status and the current round's audit
// record notes the reversal.
func demote(tx domain.Transaction, candidate Candidate, newStatus CandidateStatus, actorID string, now time.Time) (TransitionResult, error) {
	rootID, err := resolveRoot(tx, candidate)
	if err != nil {
		return TransitionResult{}, err
	}
	descendants, err := collectDescendants(tx, candidate, rootID)
	if err != nil {
		return TransitionResult{}, err
	}

	descendantIDs := make(map[string]struct{}, len(descendants))
	descendantRounds := make(map[string]struct{}, len(descendants))
	for _, d := range descendants {
		descendantIDs[d.ID] = struct{}{}
		descendantRounds[d.RoundID] = struct{}{}
	}

	for _, record := range tx.Snapshot().ListProgressionRecords() {
		if _, ok := descendantIDs[record.CandidateID]; ok {
			if err := tx.DeleteProgression(record.ID); err != nil {
				return TransitionResult{}, err
			}
			continue
		}
		if record.CandidateID == rootID {
			if _, ok := descendantRounds[record.ToRoundID]; ok {
				if err := tx.DeleteProgression(record.ID); err != nil {
					return TransitionResult{}, err
				}
			}
		}
	}

	for _, d := range descendants {
		if err := tx.DeleteCandidate(d.ID); err != nil {
			return TransitionResult{}, err
		}
	}

	updated, err := tx.UpdateCandidate(candidate.ID, func(c *Candidate) error {
		c.Status = newStatus
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}

	record := ProgressionRecord{
		CandidateID: rootID,
		FromRoundID: candidate.RoundID,
		ToRoundID:   candidate.RoundID,
		QualifiedBy: actorID,
		QualifiedAt: now,
		Status:      domain.ProgressionReversed,
		Notes:       fmt.Sprintf("promotion reversed, status set to %s", newStatus),
	}
	if _, err := tx.UpsertProgression(record); err != nil {
		return TransitionResult{}, err
	}

	return TransitionResult{Candidate: updated, ClonesDeleted: len(descendants)}, nil
}

// lateral updates the status without clone side effects and records the
// change against the candidate's current round.
func lateral(tx domain.Transaction, candidate Candidate, newStatus CandidateStatus, actorID string, now time.Time) (TransitionResult, error) {
	rootID, err := resolveRoot(tx, candidate)
	if err != nil {
		return TransitionResult{}, err
	}
	updated, err := tx.UpdateCandidate(candidate.ID, func(c *Candidate) error {
		c.Status = newStatus
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}
	record := ProgressionRecord{
		CandidateID: rootID,
		FromRoundID: candidate.RoundID,
		ToRoundID:   candidate.RoundID,
		QualifiedBy: actorID,
		QualifiedAt: now,
		Status:      domain.ProgressionStatusChange,
		Notes:       fmt.Sprintf("status changed from %s to %s", candidate.Status, newStatus),
	}
	if _, err := tx.UpsertProgression(record); err != nil {
		return TransitionResult{}, err
	}
	return TransitionResult{Candidate: updated}, nil
}

// resolveRoot follows the clone chain up to its original row. The walk is
// bounded by the round count: a chain can never be deeper than the number
// of rounds, so exceeding that means the chain is corrupt.
func resolveRoot(tx domain.Transaction, candidate Candidate) (string, error) {
	maxDepth := len(tx.Snapshot().ListRounds()) + 1
	current := candidate
	for depth := 0; depth < maxDepth; depth++ {
		if current.IsOriginal || current.OriginalCandidateID == nil {
			return current.ID, nil
		}
		parent, ok := tx.FindCandidate(*current.OriginalCandidateID)
		if !ok {
			return "", domain.NotFoundError{Entity: EntityCandidate, ID: *current.OriginalCandidateID}
		}
		current = parent
	}
	return "", fmt.Errorf("clone chain for candidate %s exceeds %d hops", candidate.ID, maxDepth)
}

// collectDescendants gathers every row the candidate's qualification chain
// produced after the candidate's own round. The traversal is transitive
// over the root pointer: it does not assume one live descendant per round.
func collectDescendants(tx domain.Transaction, candidate Candidate, rootID string) ([]Candidate, error) {
	view := tx.Snapshot()
	currentRound, ok := view.FindRound(candidate.RoundID)
	if !ok {
		return nil, domain.NotFoundError{Entity: EntityRound, ID: candidate.RoundID}
	}

	// Seed with every chain member, resolved transitively.
	members := map[string]Candidate{}
	for _, c := range view.ListCandidates() {
		if c.ID == candidate.ID {
			continue
		}
		root, err := resolveRoot(tx, c)
		if err != nil {
			return nil, err
		}
		if root == rootID {
			members[c.ID] = c
		}
	}

	var out []Candidate
	for _, member := range members {
		round, ok := view.FindRound(member.RoundID)
		if !ok || round.OrderIndex > currentRound.OrderIndex {
			out = append(out, member)
		}
	}
	return out, nil
}
