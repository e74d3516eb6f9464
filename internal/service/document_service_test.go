package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studentia/internal/apperr"
	"github.com/Freeeeeet/studentia/internal/model"
)

func uploadPortfolio(t *testing.T, f *fixture) *model.Document {
	t.Helper()
	doc, err := f.documents.Upload(context.Background(), UploadInput{
		StudentID:     "s1",
		ReceiverGroup: "Recruiters",
		DataGroup:     "Portfolio",
		FileName:      "cv.pdf",
		MimeType:      "application/pdf",
		Content:       []byte("curriculum vitae"),
	})
	require.NoError(t, err)
	return doc
}

func TestPortfolioRecruitersScenario(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	doc := uploadPortfolio(t, f)

	_, err := f.documents.Share(ctx, doc.ID, "s1", "Recruiters")
	require.NoError(t, err)

	_, err = f.documents.Download(ctx, doc.ID, "s1", "Recruiters")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Contains(t, err.Error(), ReasonConsentNotGranted)
	assert.Contains(t, err.Error(), "on-chain status none")

	req, err := f.requests.Create(ctx, "s1", "Recruiters", "Portfolio", "hiring")
	require.NoError(t, err)
	_, err = f.requests.Approve(ctx, req.ID)
	require.NoError(t, err)

	res, err := f.documents.Download(ctx, doc.ID, "s1", "Recruiters")
	require.NoError(t, err)
	assert.Equal(t, model.AccessModeShared, res.AccessMode)
	assert.Equal(t, []byte("curriculum vitae"), res.Content)

	_, err = f.consents.WriteGrant(ctx, model.ActionRevoke, req.ConsentKey())
	require.NoError(t, err)

	_, err = f.documents.Download(ctx, doc.ID, "s1", "Recruiters")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Contains(t, err.Error(), "on-chain status revoked")
}

func TestNotSharedSkipsLedger(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	doc := uploadPortfolio(t, f)

	_, err := f.consents.WriteGrant(ctx, model.ActionGrant, model.NewConsentKey("s1", "College", "Portfolio"))
	require.NoError(t, err)
	before := f.ledger.reads.Load()

	decision, err := f.auth.CanDisclose(ctx, doc, Requester{StudentID: "s1", Group: "College"})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNotShared, decision.Reason)
	assert.Equal(t, before, f.ledger.reads.Load())
}

func TestOwnerModeIgnoresSharingAndLedger(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	doc := uploadPortfolio(t, f)

	res, err := f.documents.Download(ctx, doc.ID, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, model.AccessModeOwner, res.AccessMode)
	assert.Zero(t, f.ledger.reads.Load())

	decision, err := f.auth.CanDisclose(ctx, doc, Requester{StudentID: "s2"})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNotOwner, decision.Reason)
}

func TestShareOwnerOnlyAndIdempotent(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	doc := uploadPortfolio(t, f)

	_, err := f.documents.Share(ctx, doc.ID, "s2", "Recruiters")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.documents.Share(ctx, uuid.New(), "s1", "Recruiters")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	for i := 0; i < 2; i++ {
		shared, err := f.documents.Share(ctx, doc.ID, "s1", "Recruiters")
		require.NoError(t, err)
		assert.Equal(t, []string{"Recruiters"}, shared)
	}
	assert.Zero(t, f.ledger.reads.Load())
}

func TestDownloadRequiresMatchingOwner(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	doc := uploadPortfolio(t, f)

	_, err := f.documents.Download(ctx, doc.ID, "s2", "Recruiters")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.documents.Download(ctx, doc.ID, "", "Recruiters")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.documents.Download(ctx, uuid.New(), "s1", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	base := UploadInput{StudentID: "s1", ReceiverGroup: "College", DataGroup: "Academics", FileName: "a.txt", Content: []byte("x")}

	missingName := base
	missingName.FileName = ""
	_, err := f.documents.Upload(ctx, missingName)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	empty := base
	empty.Content = nil
	_, err = f.documents.Upload(ctx, empty)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	tooBig := base
	tooBig.Content = make([]byte, 1<<20+1)
	_, err = f.documents.Upload(ctx, tooBig)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	doc, err := f.documents.Upload(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, model.StoragePlain, doc.StorageMode)
	assert.Equal(t, defaultMimeType, doc.MimeType)

	list, err := f.documents.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, doc.ID, list[0].ID)
}

func TestEncryptedDocumentRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	f := newFixture(t, base64.StdEncoding.EncodeToString(key))
	doc := uploadPortfolio(t, f)
	assert.Equal(t, model.StorageEncrypted, doc.StorageMode)

	res, err := f.documents.Download(context.Background(), doc.ID, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("curriculum vitae"), res.Content)
}
