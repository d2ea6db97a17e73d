// Package theses holds the static catalog of tracked investment theses.
// The catalog is fixed at startup and consulted everywhere a thesis id is
// validated, so the set of known theses cannot drift between components.
package theses

import "sort"

// Thesis is one predefined proposition being monitored.
type Thesis struct {
	ID          string   `json:"id" mapstructure:"id"`
	Name        string   `json:"name" mapstructure:"name"`
	Description string   `json:"description" mapstructure:"description"`
	Keywords    []string `json:"keywords" mapstructure:"keywords"`
}

// Catalog is an immutable lookup table of theses.
type Catalog struct {
	byID  map[string]Thesis
	order []string
}

// NewCatalog builds a catalog from a list of theses. Later duplicates of an
// id replace earlier ones.
func NewCatalog(list []Thesis) *Catalog {
	c := &Catalog{byID: make(map[string]Thesis, len(list))}
	for _, t := range list {
		if _, seen := c.byID[t.ID]; !seen {
			c.order = append(c.order, t.ID)
		}
		c.byID[t.ID] = t
	}
	sort.Strings(c.order)
	return c
}

// Get returns the thesis for an id.
func (c *Catalog) Get(id string) (Thesis, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Valid reports whether an id names a cataloged thesis.
func (c *Catalog) Valid(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// All returns every thesis in stable id order.
func (c *Catalog) All() []Thesis {
	out := make([]Thesis, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len returns the number of cataloged theses.
func (c *Catalog) Len() int {
	return len(c.byID)
}

// Default returns the built-in thesis catalog. Configuration may replace it
// wholesale but individual entries are never mutated at runtime.
func Default() *Catalog {
	return NewCatalog([]Thesis{
		{
			ID:   "ai_job_displacement",
			Name: "AI Job Displacement",
			Description: "Significant job losses coming due to AI adoption across industries. " +
				"Tracking layoffs attributed to AI, hiring freezes, automation of " +
				"white-collar work, company statements about AI replacing headcount.",
			Keywords: []string{
				"AI layoffs", "AI job losses", "AI automation jobs",
				"AI replacing workers", "workforce reduction AI",
				"AI hiring freeze", "white collar automation",
			},
		},
		{
			ID:   "ai_deflation",
			Name: "AI Deflation",
			Description: "Deflationary effects as cheaper AI tools replace expensive people " +
				"and software. Tracking price drops in software/services due to AI " +
				"competition, SaaS disruption, margin compression, AI driving down costs.",
			Keywords: []string{
				"AI deflation", "AI price disruption", "SaaS AI competition",
				"AI cost reduction", "software pricing pressure AI",
				"AI margin compression", "cheaper AI tools",
			},
		},
		{
			ID:   "datacenter_credit_crisis",
			Name: "Datacenter Credit Crisis",
			Description: "Credit crisis from datacenter overbuilding. AI revenue failing to " +
				"match capex, GPU obsolescence risk, datacenter financing stress, " +
				"stranded assets. Specifically because AI-driven revenues will not " +
				"catch nor keep up with capex, and existing chips and technology " +
				"risk becoming deprecated and obsolete.",
			Keywords: []string{
				"datacenter overbuilding", "AI capex", "datacenter credit",
				"GPU obsolescence", "datacenter debt",
				"AI infrastructure spending", "stranded datacenter assets",
				"datacenter financing",
			},
		},
	})
}
