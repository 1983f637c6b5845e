package scraper

// Selector names one fragment of a page and the CSS query that locates it.
type Selector struct {
	Name  string `mapstructure:"name" json:"name"`
	Query string `mapstructure:"query" json:"query"`
}

// Target is a page under the base URL. Selectors are applied in order.
type Target struct {
	Path      string     `mapstructure:"path" json:"path"`
	Selectors []Selector `mapstructure:"selectors" json:"selectors"`
	// Render loads the page in a headless browser when one is configured.
	Render bool `mapstructure:"render" json:"render"`
}

// DefaultTargets returns the admissions, programs and tuition pages.
func DefaultTargets() []Target {
	return []Target{
		{
			Path: "/admissions",
			Selectors: []Selector{
				{Name: "main_content", Query: "div.content, div.main, article"},
				{Name: "requirements", Query: "ul.requirements, .requirements-list"},
				{Name: "deadlines", Query: "table.deadlines, .deadline-info"},
			},
		},
		{
			Path: "/programs",
			Selectors: []Selector{
				{Name: "program_list", Query: "div.program-card, .program-item"},
				{Name: "description", Query: "p.description, .program-description"},
			},
		},
		{
			Path: "/tuition",
			Selectors: []Selector{
				{Name: "tuition_table", Query: "table.tuition, .tuition-info"},
				{Name: "fees", Query: ".fees-list, table.fees"},
			},
		},
	}
}
