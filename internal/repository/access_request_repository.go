package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/studentia/internal/ctxutil"
	"github.com/Freeeeeet/studentia/internal/model"
	"github.com/Freeeeeet/studentia/internal/repository/base"
)

const accessRequestColumns = `
	id, student_id, requester_group, data_group, purpose, status,
	approved_tx_id, approved_return_value, reject_reason,
	claim_token, claimed_at, created_at, updated_at`

type AccessRequestRepository struct {
	*base.Repository
}

func NewAccessRequestRepository(pool *pgxpool.Pool) *AccessRequestRepository {
	return &AccessRequestRepository{Repository: base.NewRepository(pool)}
}

// Create создает заявку
func (r *AccessRequestRepository) Create(ctx context.Context, req *model.AccessRequest) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO access_requests (id, student_id, requester_group, data_group, purpose, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		req.ID,
		req.StudentID,
		req.RequesterGroup,
		req.DataGroup,
		req.Purpose,
		req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return base.Wrap("create access request", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *AccessRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AccessRequest, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + accessRequestColumns + ` FROM access_requests WHERE id = $1`

	req, err := scanAccessRequest(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, base.Wrap("get access request", err)
	}

	return req, nil
}

// ListByStudent получает заявки студента, новые первыми
func (r *AccessRequestRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.AccessRequest, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + accessRequestColumns + `
		FROM access_requests
		WHERE student_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, "list access requests by student", query, studentID)
}

// ListByRequesterGroup получает заявки группы запроса, новые первыми
func (r *AccessRequestRepository) ListByRequesterGroup(ctx context.Context, group string) ([]*model.AccessRequest, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + accessRequestColumns + `
		FROM access_requests
		WHERE requester_group = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, "list access requests by group", query, group)
}

// ClaimForApproval захватывает pending заявку, если её никто не одобряет прямо сейчас
func (r *AccessRequestRepository) ClaimForApproval(ctx context.Context, id, token uuid.UUID, staleBefore time.Time) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE access_requests
		SET claim_token = $2, claimed_at = NOW()
		WHERE id = $1
		  AND status = 'pending'
		  AND (claim_token IS NULL OR claimed_at < $3)
	`

	affected, err := r.ExecAffected(ctx, query, id, token, staleBefore)
	if err != nil {
		return false, base.Wrap("claim access request", err)
	}

	return affected == 1, nil
}

// ReleaseClaim снимает свой захват, заявка остаётся pending
func (r *AccessRequestRepository) ReleaseClaim(ctx context.Context, id, token uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE access_requests
		SET claim_token = NULL, claimed_at = NULL
		WHERE id = $1 AND claim_token = $2
	`

	if _, err := r.ExecAffected(ctx, query, id, token); err != nil {
		return base.Wrap("release claim", err)
	}

	return nil
}

// CompleteApproval переводит захваченную заявку в approved
func (r *AccessRequestRepository) CompleteApproval(ctx context.Context, id, token uuid.UUID, txID, returnValue string) (*model.AccessRequest, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE access_requests
		SET status = 'approved',
		    approved_tx_id = $3,
		    approved_return_value = $4,
		    claim_token = NULL,
		    claimed_at = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND claim_token = $2
		RETURNING ` + accessRequestColumns

	req, err := scanAccessRequest(r.QueryRow(ctx, query, id, token, txID, returnValue))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, base.Wrap("complete approval", err)
	}

	return req, nil
}

// Reject отклоняет pending заявку без активного захвата
func (r *AccessRequestRepository) Reject(ctx context.Context, id uuid.UUID, reason string, staleBefore time.Time) (*model.AccessRequest, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE access_requests
		SET status = 'rejected',
		    reject_reason = $2,
		    claim_token = NULL,
		    claimed_at = NULL,
		    updated_at = NOW()
		WHERE id = $1
		  AND status = 'pending'
		  AND (claim_token IS NULL OR claimed_at < $3)
		RETURNING ` + accessRequestColumns

	req, err := scanAccessRequest(r.QueryRow(ctx, query, id, reason, staleBefore))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, base.Wrap("reject access request", err)
	}

	return req, nil
}

// ReleaseStaleClaims снимает зависшие захваты
func (r *AccessRequestRepository) ReleaseStaleClaims(ctx context.Context, staleBefore time.Time) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE access_requests
		SET claim_token = NULL, claimed_at = NULL
		WHERE claim_token IS NOT NULL AND claimed_at < $1
	`

	affected, err := r.ExecAffected(ctx, query, staleBefore)
	if err != nil {
		return 0, base.Wrap("release stale claims", err)
	}

	return affected, nil
}

func (r *AccessRequestRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.AccessRequest, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, base.Wrap(op, err)
	}
	defer rows.Close()

	requests := make([]*model.AccessRequest, 0)
	for rows.Next() {
		req, err := scanAccessRequest(rows)
		if err != nil {
			return nil, base.Wrap(op, err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, base.Wrap(op, err)
	}

	return requests, nil
}

func scanAccessRequest(row pgx.Row) (*model.AccessRequest, error) {
	var req model.AccessRequest
	err := row.Scan(
		&req.ID,
		&req.StudentID,
		&req.RequesterGroup,
		&req.DataGroup,
		&req.Purpose,
		&req.Status,
		&req.ApprovedTxID,
		&req.ApprovedReturnValue,
		&req.RejectReason,
		&req.ClaimToken,
		&req.ClaimedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
