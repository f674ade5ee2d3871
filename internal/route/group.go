package route

// Group registers a batch of routes sharing a type tag and default auth.
// It is a registration-time convenience only; the table stores plain
// definitions. The first registration error is kept and reported by Err.
type Group struct {
	table *Table
	typ   string
	auth  Auth
	err   error
}

// Group starts a group of routes tagged with typ.
func (t *Table) Group(typ string) *Group {
	return &Group{table: t, typ: typ}
}

// Auth sets the default auth tag for routes added after this call.
func (g *Group) Auth(a Auth) *Group {
	g.auth = a
	return g
}

// Add registers name/path with the group's type and auth. Fields set in
// props take precedence over the group defaults.
func (g *Group) Add(name, path string, props ...Props) *Group {
	p := Props{Type: g.typ, Auth: g.auth}
	if len(props) > 0 {
		if props[0].Type != "" {
			p.Type = props[0].Type
		}
		if props[0].Auth != "" {
			p.Auth = props[0].Auth
		}
		p.Permission = props[0].Permission
	}
	if err := g.table.Add(name, path, p); err != nil && g.err == nil {
		g.err = err
	}
	return g
}

// Err returns the first error from Add, if any.
func (g *Group) Err() error {
	return g.err
}
