package models

import "github.com/aleister1102/pagewatch/internal/config"

// ContentKind tells the normalizer how to treat fetched bytes.
type ContentKind string

const (
	KindAuto ContentKind = "auto"
	KindHTML ContentKind = "html"
	KindText ContentKind = "text"
)

// Resource is one thing being watched, identified by ID for the whole run.
type Resource struct {
	ID       string
	URL      string
	Kind     ContentKind
	Selector string
}

// ResourcesFromConfig converts configured resources, defaulting URL to ID and
// an empty content type to auto detection.
func ResourcesFromConfig(cfgs []config.ResourceConfig) []Resource {
	out := make([]Resource, 0, len(cfgs))
	for _, rc := range cfgs {
		kind := ContentKind(rc.ContentType)
		if kind == "" {
			kind = KindAuto
		}
		out = append(out, Resource{
			ID:       rc.ID,
			URL:      rc.EffectiveURL(),
			Kind:     kind,
			Selector: rc.Selector,
		})
	}
	return out
}
