package config

import "strings"

// ResourceConfig describes one monitored resource
type ResourceConfig struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty" validate:"omitempty,contenttype"`
	Selector    string `json:"selector,omitempty" yaml:"selector,omitempty"`
}

// EffectiveURL returns the URL to fetch; the ID doubles as URL when none is set.
func (rc ResourceConfig) EffectiveURL() string {
	if strings.TrimSpace(rc.URL) != "" {
		return rc.URL
	}
	return rc.ID
}

// MergeTargets appends plain targets (URL or name per entry) after the configured
// resources, skipping targets whose ID is already present. Repeated IDs within
// resources are kept so that validation can reject them.
func MergeTargets(resources []ResourceConfig, targets []string) []ResourceConfig {
	seen := make(map[string]struct{}, len(resources)+len(targets))
	merged := make([]ResourceConfig, 0, len(resources)+len(targets))
	for _, r := range resources {
		seen[r.ID] = struct{}{}
		merged = append(merged, r)
	}
	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		merged = append(merged, ResourceConfig{ID: t})
	}
	return merged
}
