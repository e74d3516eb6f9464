package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/studentia/internal/model"
)

type consentBody struct {
	StudentID     string `json:"studentId"`
	ReceiverGroup string `json:"receiverGroup"`
	DataGroup     string `json:"dataGroup"`
}

func (h *Handler) grantConsent(w http.ResponseWriter, r *http.Request) {
	h.writeConsent(w, r, model.ActionGrant)
}

func (h *Handler) revokeConsent(w http.ResponseWriter, r *http.Request) {
	h.writeConsent(w, r, model.ActionRevoke)
}

func (h *Handler) writeConsent(w http.ResponseWriter, r *http.Request, action model.ConsentAction) {
	var body consentBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	key := model.NewConsentKey(body.StudentID, body.ReceiverGroup, body.DataGroup)
	res, err := h.svc.Consents.WriteGrant(r.Context(), action, key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ok(envelope{
		"action":         action,
		"key":            key.String(),
		"txId":           res.TxID,
		"returnValue":    res.ReturnValue,
		"confirmedRound": res.ConfirmedRound,
	}))
}

func (h *Handler) consentStatus(w http.ResponseWriter, r *http.Request) {
	key := model.NewConsentKey(r.PathValue("studentId"), r.PathValue("receiverGroup"), r.PathValue("dataGroup"))
	state, err := h.svc.Consents.ReadStatus(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"consent": state}))
}

func (h *Handler) onChainSummary(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentId")
	states, err := h.svc.Consents.ListOnChain(r.Context(), studentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"studentId": studentID, "consents": states}))
}

func (h *Handler) consentHistory(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentId")
	events, err := h.svc.Consents.History(r.Context(), studentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"studentId": studentID, "events": events}))
}
