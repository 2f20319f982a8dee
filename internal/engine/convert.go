package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/danieljhkim/c3crawl/internal/layout"
)

// ConvertByUID turns the instances of one layout whose uid is listed into
// replicas of req.TemplateName, whatever their current binding.
//
// The layout is written back even when nothing matched, unless DryRun is
// set. Load and write failures are returned as errors; a zero match count
// for a non-empty uid list is reported as a warning.
func (e *Engine) ConvertByUID(ctx context.Context, req *ConvertByUIDRequest) (*ConvertByUIDResult, error) {
	if strings.TrimSpace(req.TemplateName) == "" {
		return nil, fmt.Errorf("%w: template name is required", ErrValidation)
	}
	abs, err := e.resolveLayout(req.ProjectRoot, req.LayoutPath)
	if err != nil {
		return nil, err
	}

	targets := make(map[uint32]struct{}, len(req.UIDs))
	for _, uid := range req.UIDs {
		targets[uid] = struct{}{}
	}

	result := &ConvertByUIDResult{LayoutPath: req.LayoutPath, Warnings: []Warning{}}
	err = e.withLock(abs, func() error {
		doc, err := e.layouts.Load(abs)
		if err != nil {
			return classify(err)
		}

		for _, inst := range doc.Instances() {
			uid, ok := inst.UID()
			if !ok {
				continue
			}
			if _, hit := targets[uid]; hit {
				inst.ConvertToReplica(req.TemplateName)
				result.Modified++
			}
		}

		if req.DryRun {
			return nil
		}
		if err := e.layouts.Write(abs, doc); err != nil {
			return classify(err)
		}
		result.Written = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Modified == 0 && len(req.UIDs) > 0 {
		e.warn(&result.Warnings, Warning{
			Kind:    WarnNoMatch,
			Path:    req.LayoutPath,
			Message: fmt.Sprintf("no instance matched uids %v", req.UIDs),
		})
	}

	e.logger.Info("converted instances by uid",
		"path", req.LayoutPath,
		"template", req.TemplateName,
		"requested", len(req.UIDs),
		"modified", result.Modified,
		"dry_run", req.DryRun,
	)
	return result, nil
}

// layoutOutcome is the self-contained result of one layout's
// load/mutate/write cycle.
type layoutOutcome struct {
	change   LayoutChange
	loaded   bool
	warnings []Warning
	err      error
}

// ConvertByType turns every instance of req.ObjectType across the given
// layouts into replicas of req.TemplateName.
//
// Instances that already define a template are never demoted. Layouts are
// processed independently: one that fails to load is skipped with a warning,
// and only layouts with at least one converted instance are rewritten. Write
// failures do not stop the other layouts; they are joined into the returned
// error alongside the partial result.
func (e *Engine) ConvertByType(ctx context.Context, req *ConvertByTypeRequest) (*ConvertByTypeResult, error) {
	if strings.TrimSpace(req.ObjectType) == "" {
		return nil, fmt.Errorf("%w: object type is required", ErrValidation)
	}
	if strings.TrimSpace(req.TemplateName) == "" {
		return nil, fmt.Errorf("%w: template name is required", ErrValidation)
	}

	paths := req.LayoutPaths
	if paths == nil {
		if err := e.checkProjectRoot(req.ProjectRoot); err != nil {
			return nil, err
		}
		entries, err := e.readManifest(req.ProjectRoot)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			paths = append(paths, entry.Path)
		}
	}
	paths = dedupe(paths)

	runID := uuid.NewString()
	start := e.clock.Now()
	logger := e.logger.With("run_id", runID)

	outcomes := make([]layoutOutcome, len(paths))
	var g errgroup.Group
	g.SetLimit(max(1, e.cfg.Engine.Workers))

	var cancelled error
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		g.Go(func() error {
			outcomes[i] = e.convertLayoutByType(req, p)
			return nil
		})
	}
	_ = g.Wait()

	result := &ConvertByTypeResult{Layouts: []LayoutChange{}, Warnings: []Warning{}}
	var errs []error
	for _, out := range outcomes {
		result.Warnings = append(result.Warnings, out.warnings...)
		if out.err != nil {
			errs = append(errs, out.err)
		}
		if !out.loaded {
			continue
		}
		result.Layouts = append(result.Layouts, out.change)
		if out.err == nil && out.change.Converted > 0 {
			result.ModifiedLayouts++
			result.ModifiedInstances += out.change.Converted
		}
	}
	if cancelled != nil {
		errs = append(errs, cancelled)
	}

	result.Summary = fmt.Sprintf("Converted %d instance(s) of type %s to replicas of %q across %d layout(s)",
		result.ModifiedInstances, req.ObjectType, req.TemplateName, result.ModifiedLayouts)
	if req.DryRun {
		result.Summary = "[dry run] " + result.Summary
	}

	logger.Info("converted instances by type",
		"type", req.ObjectType,
		"template", req.TemplateName,
		"layouts", len(paths),
		"modified_layouts", result.ModifiedLayouts,
		"modified_instances", result.ModifiedInstances,
		"warnings", len(result.Warnings),
		"dry_run", req.DryRun,
		"duration", e.clock.Now().Sub(start),
	)

	return result, errors.Join(errs...)
}

// convertLayoutByType runs one layout's cycle. It touches no state shared
// with other layouts.
func (e *Engine) convertLayoutByType(req *ConvertByTypeRequest, relPath string) layoutOutcome {
	out := layoutOutcome{change: LayoutChange{Path: relPath}}

	abs, err := e.resolveLayout(req.ProjectRoot, relPath)
	if err != nil {
		e.warn(&out.warnings, Warning{Kind: WarnInvalidPath, Path: relPath, Message: err.Error()})
		return out
	}

	err = e.withLock(abs, func() error {
		doc, err := e.layouts.Load(abs)
		if err != nil {
			e.warn(&out.warnings, loadWarning(relPath, err))
			return nil
		}
		out.loaded = true

		for _, inst := range doc.Instances() {
			if inst.Type() != req.ObjectType {
				continue
			}
			if inst.Mode() == layout.ModeTemplate {
				out.change.SkippedTemplates++
				continue
			}
			inst.ConvertToReplica(req.TemplateName)
			out.change.Converted++
		}

		if out.change.Converted == 0 || req.DryRun {
			return nil
		}
		if err := e.layouts.Write(abs, doc); err != nil {
			return classify(err)
		}
		out.change.Written = true
		return nil
	})
	if err != nil {
		e.logger.Error("failed to rewrite layout", "path", relPath, "error", err)
		out.err = fmt.Errorf("%s: %w", relPath, err)
	}
	return out
}

// dedupe drops repeated paths, keeping first occurrences in order. Two
// cycles on the same file would race and double count.
func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
