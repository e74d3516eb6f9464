package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/studentia/internal/ctxutil"
	"github.com/Freeeeeet/studentia/internal/model"
	"github.com/Freeeeeet/studentia/internal/repository/base"
)

type ConsentEventRepository struct {
	*base.Repository
}

func NewConsentEventRepository(pool *pgxpool.Pool) *ConsentEventRepository {
	return &ConsentEventRepository{Repository: base.NewRepository(pool)}
}

// Append записывает подтверждённый вызов grant/revoke
func (r *ConsentEventRepository) Append(ctx context.Context, e *model.ConsentEvent) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO consent_events (id, student_id, receiver_group, data_group, action, tx_id, return_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.QueryRow(
		ctx, query,
		e.ID,
		e.StudentID,
		e.ReceiverGroup,
		e.DataGroup,
		string(e.Action),
		e.TxID,
		e.ReturnValue,
	).Scan(&e.CreatedAt)

	if err != nil {
		return base.Wrap("append consent event", err)
	}

	return nil
}

// ListByStudent получает историю студента, новые события первыми
func (r *ConsentEventRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.ConsentEvent, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, student_id, receiver_group, data_group, action, tx_id, return_value, created_at
		FROM consent_events
		WHERE student_id = $1
		ORDER BY seq DESC
	`

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, base.Wrap("list consent events", err)
	}
	defer rows.Close()

	events := make([]*model.ConsentEvent, 0)
	for rows.Next() {
		var (
			e      model.ConsentEvent
			action string
		)
		err := rows.Scan(&e.ID, &e.StudentID, &e.ReceiverGroup, &e.DataGroup, &action, &e.TxID, &e.ReturnValue, &e.CreatedAt)
		if err != nil {
			return nil, base.Wrap("scan consent event", err)
		}
		e.Action = model.ConsentAction(action)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, base.Wrap("list consent events", err)
	}

	return events, nil
}

// ListKeysByStudent получает различные пары (получатель, группа данных) в порядке первого появления
func (r *ConsentEventRepository) ListKeysByStudent(ctx context.Context, studentID string) ([]model.ConsentKey, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT receiver_group, data_group
		FROM consent_events
		WHERE student_id = $1
		GROUP BY receiver_group, data_group
		ORDER BY MIN(seq)
	`

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, base.Wrap("list consent keys", err)
	}
	defer rows.Close()

	keys := make([]model.ConsentKey, 0)
	for rows.Next() {
		var receiver, data string
		if err := rows.Scan(&receiver, &data); err != nil {
			return nil, base.Wrap("scan consent key", err)
		}
		keys = append(keys, model.NewConsentKey(studentID, receiver, data))
	}

	if err := rows.Err(); err != nil {
		return nil, base.Wrap("list consent keys", err)
	}

	return keys, nil
}
