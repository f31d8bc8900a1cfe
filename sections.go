package goAdmin

// Section is one dashboard content area.
type Section struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	// AdminOnly sections are hidden from editors.
	AdminOnly bool `json:"adminOnly"`
}

// Sections lists the dashboard areas in menu order.
var Sections = []Section{
	{Name: "posts", Title: "Posts"},
	{Name: "services", Title: "Services"},
	{Name: "projects", Title: "Projects"},
	{Name: "industries", Title: "Industries"},
	{Name: "tags", Title: "Tags"},
	{Name: "media", Title: "Media"},
	{Name: "pages", Title: "Pages"},
	{Name: "editors", Title: "Editors", AdminOnly: true},
}

// SectionByName looks a section up by its route name.
func SectionByName(name string) (Section, bool) {
	for _, s := range Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// AllowedLoginTypes is the guard allow-list for s.
func (s Section) AllowedLoginTypes() []LoginType {
	if s.AdminOnly {
		return []LoginType{LoginTypeAdmin}
	}
	return nil
}

// Route is the dashboard route of s.
func (s Section) Route(routes RoutesConfig) string {
	return routes.Dashboard + "/" + s.Name
}
