//go:build integration

package repository

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/studentia/internal/model"
	"github.com/Freeeeeet/studentia/internal/testutil/testdb"
)

var db *testdb.DBHandle

func TestMain(m *testing.M) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		panic(err)
	}
	db = h
	code := m.Run()
	h.Close()
	os.Exit(code)
}

func resetDB(t *testing.T) {
	t.Helper()
	require.NoError(t, db.Reset(context.Background()))
}

func createPending(t *testing.T, repo *AccessRequestRepository) *model.AccessRequest {
	t.Helper()
	req := &model.AccessRequest{
		ID:             uuid.New(),
		StudentID:      "s1",
		RequesterGroup: "Recruiters",
		DataGroup:      "Portfolio",
		Purpose:        "hiring",
		Status:         model.RequestStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), req))
	return req
}

func TestAccessRequestClaimIsExclusive(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewAccessRequestRepository(db.Pool)
	req := createPending(t, repo)
	stale := time.Now().Add(-time.Minute)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ClaimForApproval(ctx, req.ID, uuid.New(), stale)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestAccessRequestApproveFlow(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewAccessRequestRepository(db.Pool)
	req := createPending(t, repo)
	stale := time.Now().Add(-time.Minute)
	token := uuid.New()

	ok, err := repo.ClaimForApproval(ctx, req.ID, token, stale)
	require.NoError(t, err)
	require.True(t, ok)

	rejected, err := repo.Reject(ctx, req.ID, "no", stale)
	require.NoError(t, err)
	assert.Nil(t, rejected)

	wrong, err := repo.CompleteApproval(ctx, req.ID, uuid.New(), "TX", "GRANTED")
	require.NoError(t, err)
	assert.Nil(t, wrong)

	approved, err := repo.CompleteApproval(ctx, req.ID, token, "TX", "GRANTED:s1:Recruiters:Portfolio")
	require.NoError(t, err)
	require.NotNil(t, approved)
	assert.Equal(t, model.RequestStatusApproved, approved.Status)
	assert.Equal(t, "TX", approved.ApprovedTxID)
	assert.Nil(t, approved.ClaimToken)

	got, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved())

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccessRequestReleaseClaims(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewAccessRequestRepository(db.Pool)
	req := createPending(t, repo)
	token := uuid.New()

	ok, err := repo.ClaimForApproval(ctx, req.ID, token, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	n, err := repo.ReleaseStaleClaims(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.ReleaseStaleClaims(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.ReleaseClaim(ctx, req.ID, token))

	rejected, err := repo.Reject(ctx, req.ID, "not needed", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.NotNil(t, rejected)
	assert.Equal(t, "not needed", rejected.RejectReason)

	list, err := repo.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	byGroup, err := repo.ListByRequesterGroup(ctx, "Recruiters")
	require.NoError(t, err)
	assert.Len(t, byGroup, 1)
}

func TestDocumentRoundTrip(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewDocumentRepository(db.Pool)

	doc := &model.Document{
		ID:            uuid.New(),
		StudentID:     "s1",
		ReceiverGroup: "College",
		DataGroup:     "Academics",
		FileName:      "transcript.pdf",
		MimeType:      "application/pdf",
		SizeBytes:     4,
		StorageMode:   model.StorageEncrypted,
		Payload: model.Payload{Envelope: &model.Envelope{
			IV: []byte("iv-iv-iv-iv-"), Tag: []byte("tag-tag-tag-tag-"), Ciphertext: []byte{1, 2, 3, 4},
		}},
	}
	require.NoError(t, repo.Create(ctx, doc))
	assert.False(t, doc.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Payload.Envelope)
	assert.Equal(t, []byte{1, 2, 3, 4}, got.Payload.Envelope.Ciphertext)
	assert.Empty(t, got.SharedWith)

	shared, err := repo.AddSharedWith(ctx, doc.ID, "Recruiters")
	require.NoError(t, err)
	assert.Equal(t, []string{"Recruiters"}, shared)
	shared, err = repo.AddSharedWith(ctx, doc.ID, "Recruiters")
	require.NoError(t, err)
	assert.Equal(t, []string{"Recruiters"}, shared)

	none, err := repo.AddSharedWith(ctx, uuid.New(), "Recruiters")
	require.NoError(t, err)
	assert.Nil(t, none)

	list, err := repo.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Payload.Envelope)
}

func TestGroupUpsertKeepsFirstName(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewGroupRepository(db.Pool, model.GroupKindData)

	first, err := repo.Upsert(ctx, &model.Group{StudentID: "s1", Name: "Hackathons", NormalizedName: "hackathons"})
	require.NoError(t, err)
	again, err := repo.Upsert(ctx, &model.Group{StudentID: "s1", Name: "HACKATHONS", NormalizedName: "hackathons"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Hackathons", again.Name)

	got, err := repo.GetByNormalizedName(ctx, "s1", "hackathons")
	require.NoError(t, err)
	require.NotNil(t, got)

	other := NewGroupRepository(db.Pool, model.GroupKindRequest)
	list, err := other.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRequesterCounts(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewRequesterRepository(db.Pool)

	add := func(name string) *model.RequesterIdentity {
		m := &model.RequesterIdentity{
			ID:                     uuid.New(),
			StudentID:              "s1",
			RequestGroupName:       "College",
			RequestGroupNormalized: "college",
			DisplayName:            name,
			Status:                 model.RequesterStatusActive,
		}
		require.NoError(t, repo.Create(ctx, m))
		return m
	}
	add("Admissions")
	b := add("Registrar")

	updated, err := repo.SetStatus(ctx, b.ID, model.RequesterStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, model.RequesterStatusInactive, updated.Status)

	missing, err := repo.SetStatus(ctx, uuid.New(), model.RequesterStatusActive)
	require.NoError(t, err)
	assert.Nil(t, missing)

	counts, err := repo.CountActiveByGroup(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"college": 1}, counts)

	members, err := repo.ListByGroup(ctx, "s1", "college")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestConsentEventKeys(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewConsentEventRepository(db.Pool)

	for _, e := range []*model.ConsentEvent{
		{ID: uuid.New(), StudentID: "s1", ReceiverGroup: "College", DataGroup: "Academics", Action: model.ActionGrant, TxID: "A"},
		{ID: uuid.New(), StudentID: "s1", ReceiverGroup: "Recruiters", DataGroup: "Portfolio", Action: model.ActionGrant, TxID: "B"},
		{ID: uuid.New(), StudentID: "s1", ReceiverGroup: "College", DataGroup: "Academics", Action: model.ActionRevoke, TxID: "C"},
	} {
		require.NoError(t, repo.Append(ctx, e))
	}

	keys, err := repo.ListKeysByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []model.ConsentKey{
		model.NewConsentKey("s1", "College", "Academics"),
		model.NewConsentKey("s1", "Recruiters", "Portfolio"),
	}, keys)

	events, err := repo.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "C", events[0].TxID)
}
