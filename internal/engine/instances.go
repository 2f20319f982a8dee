package engine

import (
	"context"

	"github.com/danieljhkim/c3crawl/internal/layout"
)

// ListInstances projects one layout into instance summaries, layer by layer
// in document order. Malformed fields fall back to zero values instead of
// failing the listing.
func (e *Engine) ListInstances(ctx context.Context, req *InstancesRequest) (*InstancesResult, error) {
	abs, err := e.resolveLayout(req.ProjectRoot, req.LayoutPath)
	if err != nil {
		return nil, err
	}

	doc, err := e.layouts.Load(abs)
	if err != nil {
		return nil, classify(err)
	}

	instances := doc.Instances()
	result := &InstancesResult{
		LayoutPath: req.LayoutPath,
		Instances:  make([]InstanceInfo, 0, len(instances)),
	}
	for _, inst := range instances {
		result.Instances = append(result.Instances, describe(inst))
	}
	return result, nil
}

func describe(inst *layout.Instance) InstanceInfo {
	uid, _ := inst.UID()
	pos := inst.Position()
	info := InstanceInfo{
		UID:   uid,
		Type:  inst.Type(),
		X:     pos.X,
		Y:     pos.Y,
		Layer: inst.Layer().Name(),
	}

	switch b := inst.Binding().(type) {
	case layout.TemplateBinding:
		info.Role = layout.ModeTemplate
		info.TemplateName = b.Name
	case layout.ReplicaBinding:
		info.Role = layout.ModeReplica
		info.SourceTemplateName = b.SourceTemplateName
	default:
		info.Role = layout.ModeNone
	}
	return info
}
