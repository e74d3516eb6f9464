package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/studentia/internal/export"
)

type createAccessRequestBody struct {
	StudentID      string `json:"studentId"`
	RequesterGroup string `json:"requesterGroup"`
	DataGroup      string `json:"dataGroup"`
	Purpose        string `json:"purpose"`
}

type rejectBody struct {
	Reason string `json:"reason"`
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) createAccessRequest(w http.ResponseWriter, r *http.Request) {
	var body createAccessRequestBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	req, err := h.svc.Requests.Create(r.Context(), body.StudentID, body.RequesterGroup, body.DataGroup, body.Purpose)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"request": req}))
}

func (h *Handler) getAccessRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := h.svc.Requests.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"request": req}))
}

func (h *Handler) listStudentRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.Requests.ListByStudent(r.Context(), r.PathValue("studentId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"requests": reqs}))
}

func (h *Handler) exportStudentRequests(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentId")
	reqs, err := h.svc.Requests.ListByStudent(r.Context(), studentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data, err := export.AccessRequestsXLSX(reqs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.AccessRequestsFilename(studentID, time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) listRequesterRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.Requests.ListByRequesterGroup(r.Context(), r.PathValue("requesterGroup"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"requests": reqs}))
}

func (h *Handler) approveAccessRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := h.svc.Requests.Approve(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"request": req}))
}

func (h *Handler) rejectAccessRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var body rejectBody
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	req, err := h.svc.Requests.Reject(r.Context(), id, body.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"request": req}))
}
