package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/studentia/internal/service"
)

type createGroupBody struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
}

type addMemberBody struct {
	StudentID     string `json:"studentId"`
	RequestGroup  string `json:"requestGroup"`
	DisplayName   string `json:"displayName"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress"`
	Organization  string `json:"organization"`
}

type memberStatusBody struct {
	Status string `json:"status"`
}

func (h *Handler) listGroups(groups *service.GroupService, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := groups.List(r.Context(), r.PathValue("studentId"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, ok(envelope{field: list}))
	}
}

func (h *Handler) createGroup(groups *service.GroupService, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createGroupBody
		if err := decodeJSON(r, &body); err != nil {
			h.writeError(w, r, err)
			return
		}
		g, err := groups.Create(r.Context(), body.StudentID, body.Name)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, ok(envelope{field: g}))
	}
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.Requesters.ListMembers(r.Context(), r.PathValue("studentId"), r.PathValue("groupName"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"members": members}))
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var body addMemberBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	member, err := h.svc.Requesters.Add(r.Context(), service.AddRequesterInput{
		StudentID:     body.StudentID,
		RequestGroup:  body.RequestGroup,
		DisplayName:   body.DisplayName,
		Email:         body.Email,
		WalletAddress: body.WalletAddress,
		Organization:  body.Organization,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"member": member}))
}

func (h *Handler) setMemberStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var body memberStatusBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	member, err := h.svc.Requesters.SetStatus(r.Context(), id, body.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ok(envelope{"member": member}))
}
