package engine

import (
	"github.com/danieljhkim/c3crawl/internal/bundle"
	"github.com/danieljhkim/c3crawl/internal/manifest"
)

// LayoutsRequest represents a request to list the manifest's layouts.
type LayoutsRequest struct {
	// ProjectRoot is the directory holding the manifest
	ProjectRoot string
}

// RegistryRequest represents a request to collect template definitions.
type RegistryRequest struct {
	// ProjectRoot is the directory layout paths are relative to
	ProjectRoot string

	// Entries are the layouts to scan. Nil reads the project manifest.
	Entries []manifest.Entry
}

// InstancesRequest represents a request to list one layout's instances.
type InstancesRequest struct {
	ProjectRoot string

	// LayoutPath is relative to ProjectRoot, or absolute
	LayoutPath string
}

// ConvertByUIDRequest represents a request to turn specific instances of one
// layout into replicas.
type ConvertByUIDRequest struct {
	ProjectRoot string
	LayoutPath  string

	// UIDs are the instances to convert
	UIDs []uint32

	// TemplateName is the template the replicas will mirror
	TemplateName string

	// DryRun counts matches without writing the layout
	DryRun bool
}

// ConvertByTypeRequest represents a request to turn every instance of an
// object type into replicas across many layouts.
type ConvertByTypeRequest struct {
	ProjectRoot string

	// LayoutPaths are relative to ProjectRoot. Nil uses every manifest layout.
	LayoutPaths []string

	ObjectType   string
	TemplateName string

	// DryRun counts matches without writing any layout
	DryRun bool
}

// OpenBundleRequest represents a request to extract a project bundle.
type OpenBundleRequest struct {
	ArchivePath string

	// DestDir overrides the extraction directory under the bundle cache
	DestDir string

	OnProgress bundle.Progress
}

// ExportBundleRequest represents a request to pack a project into a bundle.
type ExportBundleRequest struct {
	ProjectRoot string

	// ArchivePath defaults to <root>-<timestamp>.c3p next to the project
	ArchivePath string

	OnProgress bundle.Progress
}
