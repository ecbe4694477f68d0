package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prevhub/processync/internal/domain"
)

// buildAndamentoPredicate renders the shared filter predicate over the
// aliases h (status_history) and p (processes). Listing, markAllSeen and
// the export all use the same predicate so seen-state bookkeeping stays
// consistent with what the user filtered on. Placeholders are numbered
// from $1; callers append further args continuing the numbering.
func buildAndamentoPredicate(tenantID uuid.UUID, filter domain.AndamentoFilter, now time.Time) ([]string, []any) {
	clauses := []string{"h.tenant_id = $1"}
	args := []any{tenantID}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(p.subject_name ILIKE $%d OR p.subject_document ILIKE $%d OR p.protocol ILIKE $%d)", n, n, n,
		))
	}

	if filter.NewStatus != "" {
		args = append(args, filter.NewStatus)
		clauses = append(clauses, fmt.Sprintf("h.status_after = $%d", len(args)))
	}

	if filter.PreviousStatus != "" {
		args = append(args, filter.PreviousStatus)
		clauses = append(clauses, fmt.Sprintf("h.status_before = $%d", len(args)))
	}

	switch filter.SeenState {
	case domain.SeenStateSeen:
		clauses = append(clauses, "h.seen = TRUE")
	case domain.SeenStateUnseen:
		clauses = append(clauses, "h.seen = FALSE")
	}

	if start := filter.Period.Start(now); start != nil {
		args = append(args, *start)
		clauses = append(clauses, fmt.Sprintf("h.occurred_at >= $%d", len(args)))
	}

	return clauses, args
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search text.
func escapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `%`, `\%`)
	value = strings.ReplaceAll(value, `_`, `\_`)
	return value
}
