package engine

import (
	"github.com/danieljhkim/c3crawl/internal/bundle"
	"github.com/danieljhkim/c3crawl/internal/manifest"
)

// LayoutsResult lists the layouts declared by the manifest.
type LayoutsResult struct {
	ManifestPath string           `json:"manifestPath"`
	Layouts      []manifest.Entry `json:"layouts"`
}

// TemplateDefinition is one template found in the project. Comparable, so
// it can key a set.
type TemplateDefinition struct {
	Name       string `json:"name"`
	ObjectType string `json:"objectType"`
	LayoutName string `json:"layoutName"`
	LayoutPath string `json:"layoutPath"`
}

// RegistryResult is the deduplicated set of template definitions.
type RegistryResult struct {
	// Templates sorted by name, layout name, layout path, object type
	Templates []TemplateDefinition `json:"templates"`

	// Scanned is the number of layouts that loaded successfully
	Scanned int `json:"scanned"`

	Warnings []Warning `json:"warnings"`
}

// InstanceInfo is a read-only summary of one instance.
type InstanceInfo struct {
	UID                uint32  `json:"uid"`
	Type               string  `json:"type"`
	X                  float64 `json:"x"`
	Y                  float64 `json:"y"`
	Layer              string  `json:"layer"`
	Role               string  `json:"role"`
	TemplateName       string  `json:"templateName,omitempty"`
	SourceTemplateName string  `json:"sourceTemplateName,omitempty"`
}

// InstancesResult lists the instances of one layout in document order.
type InstancesResult struct {
	LayoutPath string         `json:"layoutPath"`
	Instances  []InstanceInfo `json:"instances"`
}

// ConvertByUIDResult reports a uid-targeted conversion.
type ConvertByUIDResult struct {
	LayoutPath string    `json:"layoutPath"`
	Modified   int       `json:"modified"`
	Written    bool      `json:"written"`
	Warnings   []Warning `json:"warnings"`
}

// LayoutChange reports what a project-wide conversion did to one layout.
type LayoutChange struct {
	Path             string `json:"path"`
	Converted        int    `json:"converted"`
	SkippedTemplates int    `json:"skippedTemplates"`
	Written          bool   `json:"written"`
}

// ConvertByTypeResult reports a project-wide conversion.
type ConvertByTypeResult struct {
	// ModifiedLayouts counts layouts rewritten (or that would be, in a dry run)
	ModifiedLayouts int `json:"modifiedLayouts"`

	// ModifiedInstances counts instances converted in those layouts
	ModifiedInstances int `json:"modifiedInstances"`

	Summary string `json:"summary"`

	// Layouts has one entry per layout that loaded, in request order
	Layouts []LayoutChange `json:"layouts"`

	Warnings []Warning `json:"warnings"`
}

// OpenBundleResult reports an extracted bundle.
type OpenBundleResult struct {
	ProjectRoot string       `json:"projectRoot"`
	Stats       bundle.Stats `json:"stats"`
}

// ExportBundleResult reports a created bundle.
type ExportBundleResult struct {
	ArchivePath string       `json:"archivePath"`
	Stats       bundle.Stats `json:"stats"`
}
