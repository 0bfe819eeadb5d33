package models

// Portfolio is the structured document rendered by the public site.
// Its shape is owned by the content editors; the server only passes it through.
type Portfolio struct {
	Hero         Section        `json:"hero" yaml:"hero"`
	About        Section        `json:"about" yaml:"about"`
	Projects     []Item         `json:"projects" yaml:"projects"`
	Certificates []Item         `json:"certificates" yaml:"certificates"`
	Skills       []SkillGroup   `json:"skills" yaml:"skills"`
	Blog         []Item         `json:"blog" yaml:"blog"`
	Contact      map[string]any `json:"contact" yaml:"contact"`
}

// Section is a titled block of text
type Section struct {
	Title    string `json:"title" yaml:"title"`
	Subtitle string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Body     string `json:"body,omitempty" yaml:"body,omitempty"`
	Image    string `json:"image,omitempty" yaml:"image,omitempty"`
}

// Item is a project, certificate or blog entry
type Item struct {
	Slug        string   `json:"slug" yaml:"slug"`
	Title       string   `json:"title" yaml:"title"`
	Summary     string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
	Image       string   `json:"image,omitempty" yaml:"image,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	PublishedAt string   `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// SkillGroup groups skills under a heading
type SkillGroup struct {
	Name   string   `json:"name" yaml:"name"`
	Skills []string `json:"skills" yaml:"skills"`
}
