package engine

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/danieljhkim/c3crawl/internal/layout"
)

// BuildRegistry scans layouts for template definitions.
//
// Layouts that are missing, unreadable or outside the project produce
// warnings and are skipped. Definitions are deduplicated on the full
// (name, type, layout name, layout path) tuple, so one template name defined
// in two layouts yields two entries.
func (e *Engine) BuildRegistry(ctx context.Context, req *RegistryRequest) (*RegistryResult, error) {
	if err := e.checkProjectRoot(req.ProjectRoot); err != nil {
		return nil, err
	}

	entries := req.Entries
	if entries == nil {
		var err error
		entries, err = e.readManifest(req.ProjectRoot)
		if err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	start := e.clock.Now()
	result := &RegistryResult{Templates: []TemplateDefinition{}, Warnings: []Warning{}}
	seen := make(map[TemplateDefinition]struct{})

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		abs, err := e.resolveLayout(req.ProjectRoot, entry.Path)
		if err != nil {
			e.warn(&result.Warnings, Warning{Kind: WarnInvalidPath, Path: entry.Path, Message: err.Error()})
			continue
		}

		doc, err := e.layouts.Load(abs)
		if err != nil {
			e.warn(&result.Warnings, loadWarning(entry.Path, err))
			continue
		}
		result.Scanned++

		for _, inst := range doc.Instances() {
			b, ok := inst.Binding().(layout.TemplateBinding)
			if !ok || b.Name == "" {
				continue
			}
			def := TemplateDefinition{
				Name:       b.Name,
				ObjectType: inst.Type(),
				LayoutName: entry.Name,
				LayoutPath: entry.Path,
			}
			if _, dup := seen[def]; dup {
				continue
			}
			seen[def] = struct{}{}
			result.Templates = append(result.Templates, def)
		}
	}

	slices.SortFunc(result.Templates, func(a, b TemplateDefinition) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.LayoutName, b.LayoutName),
			cmp.Compare(a.LayoutPath, b.LayoutPath),
			cmp.Compare(a.ObjectType, b.ObjectType),
		)
	})

	e.logger.Info("template registry built",
		"run_id", runID,
		"layouts", len(entries),
		"scanned", result.Scanned,
		"templates", len(result.Templates),
		"warnings", len(result.Warnings),
		"duration", e.clock.Now().Sub(start),
	)
	return result, nil
}
