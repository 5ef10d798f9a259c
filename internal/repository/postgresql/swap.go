package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/classboard/backoffice-go/internal/domain/swap"
	"github.com/classboard/backoffice-go/internal/pkg/database"
)

type swapRepository struct {
	db *database.DB
}

func NewSwapRepository(db *database.DB) swap.SwapRepository {
	return &swapRepository{db: db}
}

const swapColumns = `
	id, requester_id, target_employee_id, requester_assignment_id,
	target_assignment_id, status, priority, reason, emergency,
	target_reason, target_responded_at, decided_by, decided_at,
	decision_notes, expires_at, created_at, updated_at
`

func scanSwap(row pgx.Row) (swap.SwapRequest, error) {
	var s swap.SwapRequest
	err := row.Scan(
		&s.ID, &s.RequesterID, &s.TargetEmployeeID, &s.RequesterAssignmentID,
		&s.TargetAssignmentID, &s.Status, &s.Priority, &s.Reason, &s.Emergency,
		&s.TargetReason, &s.TargetRespondedAt, &s.DecidedBy, &s.DecidedAt,
		&s.DecisionNotes, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// Create implements swap.SwapRepository.
func (r *swapRepository) Create(ctx context.Context, s swap.SwapRequest) (swap.SwapRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shift_swap_requests (
			requester_id, target_employee_id, requester_assignment_id,
			target_assignment_id, status, priority, reason, emergency,
			expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		s.RequesterID,
		s.TargetEmployeeID,
		s.RequesterAssignmentID,
		s.TargetAssignmentID,
		s.Status,
		s.Priority,
		s.Reason,
		s.Emergency,
		s.ExpiresAt,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return swap.SwapRequest{}, fmt.Errorf("failed to create swap request: %w", err)
	}

	return s, nil
}

// GetByID implements swap.SwapRepository.
func (r *swapRepository) GetByID(ctx context.Context, id string) (swap.SwapRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + swapColumns + ` FROM shift_swap_requests WHERE id = $1`

	s, err := scanSwap(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return swap.SwapRequest{}, swap.ErrSwapNotFound
		}
		return swap.SwapRequest{}, fmt.Errorf("failed to get swap request: %w", err)
	}

	return s, nil
}

// Update implements swap.SwapRepository with a status compare-and-swap.
func (r *swapRepository) Update(ctx context.Context, s swap.SwapRequest, expected swap.Status) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shift_swap_requests
		SET status = $3, target_reason = $4, target_responded_at = $5,
		    decided_by = $6, decided_at = $7, decision_notes = $8,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := q.Exec(ctx, query,
		s.ID,
		expected,
		s.Status,
		s.TargetReason,
		s.TargetRespondedAt,
		s.DecidedBy,
		s.DecidedAt,
		s.DecisionNotes,
	)
	if err != nil {
		return fmt.Errorf("failed to update swap request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM shift_swap_requests WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check swap request existence: %w", err)
		}
		if !exists {
			return swap.ErrSwapNotFound
		}
		return swap.ErrStaleState
	}

	return nil
}

// List implements swap.SwapRepository.
func (r *swapRepository) List(ctx context.Context, filter swap.SwapFilter) ([]swap.SwapRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []interface{}
	argPos := 1

	addCondition := func(clause string, value interface{}) {
		conditions = append(conditions, clause+"$"+strconv.Itoa(argPos))
		args = append(args, value)
		argPos++
	}

	if filter.RequesterID != nil {
		addCondition("requester_id = ", *filter.RequesterID)
	}
	if filter.TargetEmployeeID != nil {
		addCondition("target_employee_id = ", *filter.TargetEmployeeID)
	}
	if filter.Status != nil {
		addCondition("status = ", *filter.Status)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM shift_swap_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count swap requests: %w", err)
	}

	query := `SELECT ` + swapColumns + ` FROM shift_swap_requests` + where +
		` ORDER BY created_at DESC` +
		` LIMIT $` + strconv.Itoa(argPos) + ` OFFSET $` + strconv.Itoa(argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list swap requests: %w", err)
	}
	defer rows.Close()

	var swaps []swap.SwapRequest
	for rows.Next() {
		s, err := scanSwap(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan swap request: %w", err)
		}
		swaps = append(swaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate swap requests: %w", err)
	}

	return swaps, total, nil
}

// ExistsOpenForAssignment implements swap.SwapRepository.
func (r *swapRepository) ExistsOpenForAssignment(ctx context.Context, assignmentID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM shift_swap_requests
			WHERE status IN ('PENDING', 'ACCEPTED')
			  AND (requester_assignment_id = $1 OR target_assignment_id = $1)
		)`,
		assignmentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check open swap requests: %w", err)
	}

	return exists, nil
}

// MarkExpired implements swap.SwapRepository.
func (r *swapRepository) MarkExpired(ctx context.Context, cutoff time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE shift_swap_requests
		SET status = 'EXPIRED', updated_at = NOW()
		WHERE status IN ('PENDING', 'ACCEPTED')
		  AND expires_at <= $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire swap requests: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
