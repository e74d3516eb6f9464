package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Freeeeeet/studentia/internal/model"
)

func TestAccessRequestsXLSX(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	reqs := []*model.AccessRequest{
		{ID: uuid.New(), StudentID: "s1", RequesterGroup: "Recruiters", DataGroup: "Portfolio", Purpose: "hiring",
			Status: model.RequestStatusApproved, ApprovedTxID: "TX1", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), StudentID: "s1", RequesterGroup: "College", DataGroup: "Academics",
			Status: model.RequestStatusRejected, RejectReason: "no", CreatedAt: now, UpdatedAt: now},
	}

	data, err := AccessRequestsXLSX(reqs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(accessRequestsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, accessRequestHeader, rows[0])
	assert.Equal(t, "TX1", rows[1][6])
	assert.Equal(t, "no", rows[2][8])
	assert.Equal(t, "2025-03-01T10:00:00Z", rows[1][9])
}

func TestAccessRequestsXLSXEmpty(t *testing.T) {
	data, err := AccessRequestsXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(accessRequestsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "A", columnName(1))
	assert.Equal(t, "Z", columnName(26))
	assert.Equal(t, "AA", columnName(27))
}

func TestAccessRequestsFilename(t *testing.T) {
	name := AccessRequestsFilename("stu/1", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "access-requests-stu_1-20250301.xlsx", name)
}
