// contact_handler.go -- Contact page, form action and JSON API.
package site

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/MGallo-Code/vitrine/internal/captcha"
	"github.com/MGallo-Code/vitrine/internal/contact"
	"github.com/MGallo-Code/vitrine/internal/route"
	"github.com/MGallo-Code/vitrine/internal/validate"
)

// maxFormBytes caps contact request bodies.
const maxFormBytes = 64 << 10

// contactForm is the form state rendered on the contact page.
type contactForm struct {
	Action         string
	CSRFField      string
	CSRFToken      string
	Values         map[string]string
	Errors         validate.FieldErrors
	Message        string
	Situation      string
	CaptchaSiteKey string
	CaptchaField   string
}

type contactResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Errors  validate.FieldErrors `json:"errors"`
}

// ContactPage handles GET /contact.
func (h *Handler) ContactPage(w http.ResponseWriter, r *http.Request) {
	h.renderContact(w, r, nil, nil)
}

// ContactSubmit handles POST /contact -- the no-JS form action. Re-renders
// the page with the outcome; values are kept unless the message went out.
func (h *Handler) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		logWarn(r, "failed to decode contact form", "error", err)
		fields = map[string]string{}
	}

	out := h.Form.Submit(r, fields, h.locale(r))
	logOutcome(r, out)
	h.renderContact(w, r, fields, &out)
}

// ContactAPI handles POST /api/contact. Always answers 200 with
// {success, message, errors}, even on failure.
func (h *Handler) ContactAPI(w http.ResponseWriter, r *http.Request) {
	loc := h.locale(r)
	w.Header().Set("Cache-Control", "no-store")

	fields, err := readFields(w, r)
	if err != nil {
		logWarn(r, "failed to decode contact input", "error", err)
		writeJSON(w, http.StatusOK, contactResponse{
			Message: loc.Translate("app.error.form", nil),
			Errors:  validate.FieldErrors{},
		})
		return
	}

	out := h.API.Submit(r, fields, loc)
	logOutcome(r, out)

	errs := out.Errors
	if errs == nil {
		errs = validate.FieldErrors{}
	}
	writeJSON(w, http.StatusOK, contactResponse{Success: out.OK(), Message: out.Message, Errors: errs})
}

// renderContact refreshes the CSRF pair as needed and renders the page.
func (h *Handler) renderContact(w http.ResponseWriter, r *http.Request, values map[string]string, out *contact.Outcome) {
	tc, err := h.CSRF.Issue(r)
	if err != nil {
		InternalServerError(w, r, err)
		return
	}
	h.CSRF.Write(w, tc)

	form := &contactForm{
		Action:         h.Routes.MustGet(route.Contact, nil),
		CSRFField:      h.CSRF.InputName(),
		CSRFToken:      tc.Value,
		Values:         values,
		CaptchaSiteKey: h.CaptchaSiteKey,
		CaptchaField:   captcha.ResponseField,
	}
	if out != nil {
		form.Message = out.Message
		form.Situation = out.Situation()
		form.Errors = out.Errors
		if out.OK() {
			form.Values = nil
		}
	}

	data := h.newPageData(r, route.Contact)
	data.Form = form
	body, err := render(route.Contact, data)
	if err != nil {
		InternalServerError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeHTML(w, http.StatusOK, body)
}

// readFields reads a JSON object or a urlencoded/multipart form into flat
// string fields. Non-string JSON values are formatted with fmt.
func readFields(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	fields := make(map[string]string)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding json body: %w", err)
		}
		for k, v := range raw {
			switch v := v.(type) {
			case string:
				fields[k] = v
			case nil:
			default:
				fields[k] = fmt.Sprint(v)
			}
		}
		return fields, nil
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			return nil, fmt.Errorf("parsing multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}
	return fields, nil
}

// logOutcome records a submission result. Underlying errors only go to logs.
func logOutcome(r *http.Request, out contact.Outcome) {
	switch out.Kind {
	case contact.Success:
		logInfo(r, "contact message sent")
	case contact.ValidationError:
		logDebug(r, "contact validation failed", "fields", len(out.Errors))
	case contact.CsrfError:
		logWarn(r, "contact rejected", "reason", "csrf")
	case contact.CaptchaError:
		logWarn(r, "contact rejected", "reason", "captcha", "error", out.Err)
	case contact.RateLimited:
		logWarn(r, "contact rejected", "reason", "rate_limit")
	case contact.SendError:
		logError(r, "contact send failed", "reason", out.Reason, "error", out.Err)
	}
}
