package engine

import (
	"context"
)

// Layouts returns the layouts declared by the project manifest in document
// order.
func (e *Engine) Layouts(ctx context.Context, req *LayoutsRequest) (*LayoutsResult, error) {
	if err := e.checkProjectRoot(req.ProjectRoot); err != nil {
		return nil, err
	}

	entries, err := e.readManifest(req.ProjectRoot)
	if err != nil {
		return nil, err
	}

	return &LayoutsResult{
		ManifestPath: e.manifestPath(req.ProjectRoot),
		Layouts:      entries,
	}, nil
}
