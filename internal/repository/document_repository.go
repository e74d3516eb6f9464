package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/studentia/internal/ctxutil"
	"github.com/Freeeeeet/studentia/internal/model"
	"github.com/Freeeeeet/studentia/internal/repository/base"
)

type DocumentRepository struct {
	*base.Repository
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{Repository: base.NewRepository(pool)}
}

// Create сохраняет документ вместе с содержимым
func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO documents (
			id, student_id, receiver_group, data_group, file_name, mime_type,
			size_bytes, storage_mode, shared_with, plain_data, enc_iv, enc_tag, enc_data
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	if doc.SharedWith == nil {
		doc.SharedWith = []string{}
	}

	var iv, tag, data []byte
	if env := doc.Payload.Envelope; env != nil {
		iv, tag, data = env.IV, env.Tag, env.Ciphertext
	}

	err := r.QueryRow(
		ctx, query,
		doc.ID,
		doc.StudentID,
		doc.ReceiverGroup,
		doc.DataGroup,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		string(doc.StorageMode),
		doc.SharedWith,
		doc.Payload.Plain,
		iv,
		tag,
		data,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		return base.Wrap("create document", err)
	}

	return nil
}

// GetByID получает документ с содержимым
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, student_id, receiver_group, data_group, file_name, mime_type,
		       size_bytes, storage_mode, shared_with, plain_data, enc_iv, enc_tag, enc_data,
		       created_at, updated_at
		FROM documents
		WHERE id = $1
	`

	var (
		doc             model.Document
		mode            string
		iv, tag, cipher []byte
	)
	err := r.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.StudentID,
		&doc.ReceiverGroup,
		&doc.DataGroup,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&mode,
		&doc.SharedWith,
		&doc.Payload.Plain,
		&iv,
		&tag,
		&cipher,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, base.Wrap("get document", err)
	}

	doc.StorageMode = model.StorageMode(mode)
	if doc.StorageMode == model.StorageEncrypted {
		doc.Payload.Envelope = &model.Envelope{IV: iv, Tag: tag, Ciphertext: cipher}
	}

	return &doc, nil
}

// ListByStudent получает метаданные документов студента без содержимого
func (r *DocumentRepository) ListByStudent(ctx context.Context, studentID string) ([]*model.Document, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, student_id, receiver_group, data_group, file_name, mime_type,
		       size_bytes, storage_mode, shared_with, created_at, updated_at
		FROM documents
		WHERE student_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, base.Wrap("list documents", err)
	}
	defer rows.Close()

	docs := make([]*model.Document, 0)
	for rows.Next() {
		var (
			doc  model.Document
			mode string
		)
		err := rows.Scan(
			&doc.ID,
			&doc.StudentID,
			&doc.ReceiverGroup,
			&doc.DataGroup,
			&doc.FileName,
			&doc.MimeType,
			&doc.SizeBytes,
			&mode,
			&doc.SharedWith,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, base.Wrap("scan document", err)
		}
		doc.StorageMode = model.StorageMode(mode)
		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, base.Wrap("list documents", err)
	}

	return docs, nil
}

// AddSharedWith атомарно добавляет группу в список доступа
func (r *DocumentRepository) AddSharedWith(ctx context.Context, id uuid.UUID, group string) ([]string, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE documents
		SET shared_with = CASE
		        WHEN $2::text = ANY(shared_with) THEN shared_with
		        ELSE array_append(shared_with, $2::text)
		    END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING shared_with
	`

	var shared []string
	err := r.QueryRow(ctx, query, id, group).Scan(&shared)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, base.Wrap("share document", err)
	}

	if shared == nil {
		shared = []string{}
	}
	return shared, nil
}
