package httpapi

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/Freeeeeet/studentia/internal/apperr"
	"github.com/Freeeeeet/studentia/internal/service"
)

// Запас на JSON-обвязку вокруг base64
const uploadEnvelopeSlack = 64 << 10

type uploadBody struct {
	StudentID     string `json:"studentId"`
	ReceiverGroup string `json:"receiverGroup"`
	DataGroup     string `json:"dataGroup"`
	FileName      string `json:"fileName"`
	MimeType      string `json:"mimeType"`
	FileBase64    string `json:"fileBase64"`
}

type shareBody struct {
	StudentID     string `json:"studentId"`
	ReceiverGroup string `json:"receiverGroup"`
}

func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(base64.StdEncoding.EncodedLen(int(h.maxUpload))+uploadEnvelopeSlack))

	var body uploadBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	if body.FileBase64 == "" {
		h.writeError(w, r, fmt.Errorf("%w: fileBase64 required", apperr.ErrValidation))
		return
	}
	content, err := base64.StdEncoding.DecodeString(body.FileBase64)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: fileBase64 is not valid base64", apperr.ErrValidation))
		return
	}

	doc, err := h.svc.Documents.Upload(r.Context(), service.UploadInput{
		StudentID:     body.StudentID,
		ReceiverGroup: body.ReceiverGroup,
		DataGroup:     body.DataGroup,
		FileName:      body.FileName,
		MimeType:      body.MimeType,
		Content:       content,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"document": doc}))
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Documents.ListByStudent(r.Context(), r.PathValue("studentId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"documents": docs}))
}

func (h *Handler) shareDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var body shareBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	shared, err := h.svc.Documents.Share(r.Context(), id, body.StudentID, body.ReceiverGroup)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"id": id, "sharedWith": shared}))
}

func (h *Handler) downloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	res, err := h.svc.Documents.Download(r.Context(), id, q.Get("ownerStudentId"), q.Get("requesterGroup"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ok(envelope{
		"document":   res.Document,
		"fileBase64": base64.StdEncoding.EncodeToString(res.Content),
		"accessMode": res.AccessMode,
	}))
}
