package route

import "errors"

// Route names used by handlers and templates.
const (
	Home          = "home"
	CSRF          = "csrf"
	APIContact    = "api-contact"
	Contact       = "contact"
	Terms         = "terms"
	ProtectedUnit = "unitate-protejata"
	Resources     = "resources"
	Health        = "health"
)

// Site builds the route table for the website.
func Site() (*Table, error) {
	t := New()
	if err := t.Add(Home, "/"); err != nil {
		return nil, err
	}

	api := t.Group("api").
		Add(CSRF, "/api/csrf").
		Add(APIContact, "/api/contact")

	public := t.Group("public").
		Add(Contact, "/contact").
		Add(Terms, "/terms").
		Add(ProtectedUnit, "/unitate-protejata-autorizata").
		Add(Resources, "/resources")

	system := t.Group("system").Add(Health, "/health")

	if err := errors.Join(api.Err(), public.Err(), system.Err()); err != nil {
		return nil, err
	}
	return t, nil
}
