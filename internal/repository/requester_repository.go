package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/studentia/internal/ctxutil"
	"github.com/Freeeeeet/studentia/internal/model"
	"github.com/Freeeeeet/studentia/internal/repository/base"
)

const requesterColumns = `
	id, student_id, request_group_name, request_group_normalized, display_name,
	email, wallet_address, organization, status, created_at, updated_at`

type RequesterRepository struct {
	*base.Repository
}

func NewRequesterRepository(pool *pgxpool.Pool) *RequesterRepository {
	return &RequesterRepository{Repository: base.NewRepository(pool)}
}

// Create добавляет участника группы запроса
func (r *RequesterRepository) Create(ctx context.Context, m *model.RequesterIdentity) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO requester_identities (
			id, student_id, request_group_name, request_group_normalized, display_name,
			email, wallet_address, organization, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		m.ID,
		m.StudentID,
		m.RequestGroupName,
		m.RequestGroupNormalized,
		m.DisplayName,
		m.Email,
		m.WalletAddress,
		m.Organization,
		m.Status,
	).Scan(&m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		return base.Wrap("create requester", err)
	}

	return nil
}

// ListByGroup получает участников группы, новые первыми
func (r *RequesterRepository) ListByGroup(ctx context.Context, studentID, normalizedGroup string) ([]*model.RequesterIdentity, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + requesterColumns + `
		FROM requester_identities
		WHERE student_id = $1 AND request_group_normalized = $2
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, studentID, normalizedGroup)
	if err != nil {
		return nil, base.Wrap("list requesters", err)
	}
	defer rows.Close()

	members := make([]*model.RequesterIdentity, 0)
	for rows.Next() {
		m, err := scanRequester(rows)
		if err != nil {
			return nil, base.Wrap("scan requester", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, base.Wrap("list requesters", err)
	}

	return members, nil
}

// SetStatus меняет статус участника
func (r *RequesterRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) (*model.RequesterIdentity, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE requester_identities
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + requesterColumns

	m, err := scanRequester(r.QueryRow(ctx, query, id, status))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, base.Wrap("set requester status", err)
	}

	return m, nil
}

// CountActiveByGroup считает активных участников по группам студента
func (r *RequesterRepository) CountActiveByGroup(ctx context.Context, studentID string) (map[string]int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT request_group_normalized, COUNT(*)
		FROM requester_identities
		WHERE student_id = $1 AND status = 'active'
		GROUP BY request_group_normalized
	`

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, base.Wrap("count requesters", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			group string
			n     int
		)
		if err := rows.Scan(&group, &n); err != nil {
			return nil, base.Wrap("scan requester count", err)
		}
		counts[group] = n
	}

	if err := rows.Err(); err != nil {
		return nil, base.Wrap("count requesters", err)
	}

	return counts, nil
}

func scanRequester(row pgx.Row) (*model.RequesterIdentity, error) {
	var m model.RequesterIdentity
	err := row.Scan(
		&m.ID,
		&m.StudentID,
		&m.RequestGroupName,
		&m.RequestGroupNormalized,
		&m.DisplayName,
		&m.Email,
		&m.WalletAddress,
		&m.Organization,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
