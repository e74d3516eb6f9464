package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/studentia/internal/ctxutil"
	"github.com/Freeeeeet/studentia/internal/model"
	"github.com/Freeeeeet/studentia/internal/repository/base"
)

// GroupRepository хранит пользовательские группы одного вида в своей таблице
type GroupRepository struct {
	*base.Repository
	table string
}

// NewGroupRepository создаёт репозиторий для data_groups или request_groups
func NewGroupRepository(pool *pgxpool.Pool, kind model.GroupKind) *GroupRepository {
	table := "data_groups"
	if kind == model.GroupKindRequest {
		table = "request_groups"
	}
	return &GroupRepository{Repository: base.NewRepository(pool), table: table}
}

// Upsert создаёт группу или возвращает уже существующую с тем же нормализованным именем
func (r *GroupRepository) Upsert(ctx context.Context, g *model.Group) (*model.Group, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (student_id, name, normalized_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, normalized_name)
		DO UPDATE SET normalized_name = EXCLUDED.normalized_name
		RETURNING id::text, student_id, name, normalized_name, created_at
	`, r.table)

	var out model.Group
	err := r.QueryRow(ctx, query, g.StudentID, g.Name, g.NormalizedName).Scan(
		&out.ID,
		&out.StudentID,
		&out.Name,
		&out.NormalizedName,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, base.Wrap("upsert "+r.table, err)
	}

	out.IsCustom = true
	return &out, nil
}

// ListByStudent получает группы студента, новые первыми
func (r *GroupRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.Group, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id::text, student_id, name, normalized_name, created_at
		FROM %s
		WHERE student_id = $1
		ORDER BY created_at DESC
	`, r.table)

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, base.Wrap("list "+r.table, err)
	}
	defer rows.Close()

	groups := make([]*model.Group, 0)
	for rows.Next() {
		g := model.Group{IsCustom: true}
		if err := rows.Scan(&g.ID, &g.StudentID, &g.Name, &g.NormalizedName, &g.CreatedAt); err != nil {
			return nil, base.Wrap("scan "+r.table, err)
		}
		groups = append(groups, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, base.Wrap("list "+r.table, err)
	}

	return groups, nil
}

// GetByNormalizedName находит группу по нормализованному имени
func (r *GroupRepository) GetByNormalizedName(ctx context.Context, studentID, normalized string) (*model.Group, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id::text, student_id, name, normalized_name, created_at
		FROM %s
		WHERE student_id = $1 AND normalized_name = $2
	`, r.table)

	g := model.Group{IsCustom: true}
	err := r.QueryRow(ctx, query, studentID, normalized).Scan(&g.ID, &g.StudentID, &g.Name, &g.NormalizedName, &g.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, base.Wrap("get "+r.table, err)
	}

	return &g, nil
}
