// csrf_handler.go -- GET /api/csrf.
package site

import "net/http"

type csrfResponse struct {
	Data struct {
		CSRFToken string `json:"csrfToken"`
	} `json:"data"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CSRFToken handles GET /api/csrf. Returns the current token and writes the
// cookie pair only when it was issued or refreshed.
func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	tc, err := h.CSRF.Issue(r)
	if err != nil {
		InternalServerError(w, r, err)
		return
	}
	h.CSRF.Write(w, tc)
	logDebug(r, "csrf token served", "state", tc.State.String(), "action", string(tc.Action))

	setSecurityHeaders(w)
	var resp csrfResponse
	resp.Data.CSRFToken = tc.Value
	resp.Success = true
	writeJSON(w, http.StatusOK, resp)
}
