// Package export builds xlsx audit reports.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Freeeeeet/studentia/internal/model"
)

const accessRequestsSheet = "Access requests"

var accessRequestHeader = []string{
	"ID", "Student", "Requester group", "Data group", "Purpose", "Status",
	"Approved tx", "Return value", "Reject reason", "Created", "Updated",
}

// AccessRequestsWorkbook строит книгу с заявками студента
func AccessRequestsWorkbook(reqs []*model.AccessRequest) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", accessRequestsSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, h := range accessRequestHeader {
		cell := fmt.Sprintf("%s1", columnName(col+1))
		if err := f.SetCellStr(accessRequestsSheet, cell, h); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}

	for r, req := range reqs {
		row := []string{
			req.ID.String(),
			req.StudentID,
			req.RequesterGroup,
			req.DataGroup,
			req.Purpose,
			req.Status,
			req.ApprovedTxID,
			req.ApprovedReturnValue,
			req.RejectReason,
			req.CreatedAt.UTC().Format(time.RFC3339),
			req.UpdatedAt.UTC().Format(time.RFC3339),
		}
		for c, val := range row {
			cell := fmt.Sprintf("%s%d", columnName(c+1), r+2)
			if err := f.SetCellStr(accessRequestsSheet, cell, val); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := ApplyDefaultFormatting(f, accessRequestsSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("format sheet: %w", err)
	}
	return f, nil
}

// AccessRequestsXLSX возвращает книгу в виде байтов
func AccessRequestsXLSX(reqs []*model.AccessRequest) ([]byte, error) {
	f, err := AccessRequestsWorkbook(reqs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// AccessRequestsFilename builds the download name of a student's report
func AccessRequestsFilename(studentID string, at time.Time) string {
	return sanitizeFileName(fmt.Sprintf("access-requests-%s-%s.xlsx", studentID, at.UTC().Format("20060102")))
}
