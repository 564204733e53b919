package core

import (
	"fmt"
	"strconv"
	"strings"

	"recitecore/pkg/domain"
)

// registrationPrefix renders the round-scoped prefix of a registration
// number, e.g. "R02-" for the round with order index 2.
func registrationPrefix(round Round) string {
	return fmt.Sprintf("R%02d-", round.OrderIndex)
}

// FormatRegistration renders a full registration number for a round and sequence.
func FormatRegistration(round Round, seq int) string {
	return fmt.Sprintf("%s%03d", registrationPrefix(round), seq)
}

// AllocateRegistration returns the smallest unused positive sequence in the
// round's registration series. Gaps left by demotion cleanup are reused, so
// the scan is over the full series rather than max+1.
func AllocateRegistration(view domain.TransactionView, round Round) string {
	prefix := registrationPrefix(round)
	used := make(map[int]struct{})
	for _, c := range view.ListCandidates() {
		if c.RoundID != round.ID {
			continue
		}
		suffix, ok := strings.CutPrefix(c.RegistrationNumber, prefix)
		if !ok {
			continue
		}
		seq, err := strconv.Atoi(suffix)
		if err != nil || seq <= 0 {
			continue
		}
		used[seq] = struct{}{}
	}
	seq := 1
	for {
		if _, taken := used[seq]; !taken {
			return FormatRegistration(round, seq)
		}
		seq++
	}
}
