// Package kb loads the curated knowledge base all generated content must be
// grounded in: project facts, long-form narrative, identity data and media
// metadata. The primary source is a local sqlite store; a filesystem legacy
// source is merged in field-by-field when the primary is unavailable or
// partial. The knowledge base is read-only per request.
package kb

// Timeline is the project timeframe split into a year and a free-form
// duration ("6 months", "ongoing").
type Timeline struct {
	Year     int    `json:"year"`
	Duration string `json:"duration"`
}

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ProjectFacts is the immutable fact record for one project. It is the source
// of truth and is never mutated after load.
type ProjectFacts struct {
	Slug             string   `json:"slug"`
	Title            string   `json:"title,omitempty"`
	Client           string   `json:"client"`
	Industry         string   `json:"industry,omitempty"`
	Timeline         Timeline `json:"timeline"`
	Role             string   `json:"role"`
	Summary          string   `json:"summary"`
	Problem          string   `json:"problem,omitempty"`
	Goals            []string `json:"goals,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	Outcomes         []string `json:"outcomes,omitempty"`
	Links            []Link   `json:"links,omitempty"`
}

// ProjectLongform is the optional narrative companion to ProjectFacts,
// keyed by the same slug.
type ProjectLongform struct {
	Title       string `json:"title,omitempty" yaml:"title"`
	Context     string `json:"context,omitempty" yaml:"context"`
	Problem     string `json:"problem,omitempty" yaml:"problem"`
	Solution    string `json:"solution,omitempty" yaml:"solution"`
	Process     string `json:"process,omitempty" yaml:"process"`
	Outcomes    string `json:"outcomes,omitempty" yaml:"outcomes"`
	Reflections string `json:"reflections,omitempty" yaml:"reflections"`
}

type Project struct {
	Facts    ProjectFacts     `json:"facts"`
	Longform *ProjectLongform `json:"longform,omitempty"`
}

type Contact struct {
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// Identity describes the person behind the portfolio. At most one instance
// exists per request.
type Identity struct {
	Headline     string   `json:"headline,omitempty"`
	SummaryShort string   `json:"summary_short,omitempty"`
	SummaryLong  string   `json:"summary_long,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	Tools        []string `json:"tools,omitempty"`
	Values       []string `json:"values,omitempty"`
	Contact      *Contact `json:"contact,omitempty"`
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type MediaRole string

const (
	RoleHero    MediaRole = "hero"
	RoleInline  MediaRole = "inline"
	RoleGallery MediaRole = "gallery"
	RoleStep    MediaRole = "step"
)

// MediaRecord is the stored metadata for one media asset. Alt text is
// required; rendering media without it is a hard validation failure.
type MediaRecord struct {
	ID          string    `json:"id"`
	ProjectSlug string    `json:"project_slug,omitempty"`
	Type        MediaType `json:"type"`
	Role        MediaRole `json:"role"`
	Alt         string    `json:"alt"`
	Caption     string    `json:"caption,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`

	// URL is the stored direct URL; StorageBucket/StoragePath, when set, take
	// precedence and drive signed-URL regeneration.
	URL           string `json:"url,omitempty"`
	StorageBucket string `json:"storage_bucket,omitempty"`
	StoragePath   string `json:"storage_path,omitempty"`
}

// Data is the joined knowledge-base view handed to the copywriter.
type Data struct {
	Projects []Project     `json:"projects"`
	Identity *Identity     `json:"identity,omitempty"`
	Media    []MediaRecord `json:"media,omitempty"`
}

// MediaMeta is the token-budget-friendly media view embedded in prompts:
// ids, roles and alt text only, never URLs.
type MediaMeta struct {
	ID          string    `json:"id"`
	ProjectSlug string    `json:"project_slug,omitempty"`
	Type        MediaType `json:"type"`
	Role        MediaRole `json:"role"`
	Alt         string    `json:"alt"`
	Caption     string    `json:"caption,omitempty"`
}

// MediaMetadata strips URLs and storage locations from the media list.
func (d *Data) MediaMetadata() []MediaMeta {
	if d == nil {
		return nil
	}
	out := make([]MediaMeta, 0, len(d.Media))
	for _, m := range d.Media {
		out = append(out, MediaMeta{
			ID:          m.ID,
			ProjectSlug: m.ProjectSlug,
			Type:        m.Type,
			Role:        m.Role,
			Alt:         m.Alt,
			Caption:     m.Caption,
		})
	}
	return out
}
