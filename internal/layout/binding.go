package layout

// On-disk keys of the template sub-object.
const (
	keyTemplate           = "template"
	keyMode               = "mode"
	keyTemplateName       = "templateName"
	keySourceTemplateName = "sourceTemplateName"
	keyHierarchyInSync    = "replicaHierarchyInSyncWithTemplate"
	keyPropagateChanges   = "templatePropagateHierarchyChanges"
	keyIgnoreChanges      = "replicaIgnoreTemplateHierarchyChanges"
	keyComponents         = "components"
)

// Mode discriminator values.
const (
	ModeNone     = "none"
	ModeTemplate = "template"
	ModeReplica  = "replica"
)

// Binding is the template role of an instance. Exactly one of NoBinding,
// TemplateBinding or ReplicaBinding.
type Binding interface {
	// Mode returns the discriminator for this variant.
	Mode() string

	isBinding()
}

// NoBinding marks a plain instance.
type NoBinding struct{}

// TemplateBinding marks an instance that defines a reusable template.
type TemplateBinding struct {
	Name string
}

// ReplicaBinding marks an instance that mirrors a template.
type ReplicaBinding struct {
	SourceTemplateName string
	Sync               SyncFlags
	Components         []any
}

// SyncFlags are the hierarchy synchronisation switches of a replica.
type SyncFlags struct {
	HierarchyInSync           bool
	PropagateHierarchyChanges bool
	IgnoreHierarchyChanges    bool
}

// DefaultSyncFlags are written for flags a replica does not carry yet.
var DefaultSyncFlags = SyncFlags{
	HierarchyInSync:           true,
	PropagateHierarchyChanges: true,
	IgnoreHierarchyChanges:    false,
}

func (NoBinding) Mode() string       { return ModeNone }
func (TemplateBinding) Mode() string { return ModeTemplate }
func (ReplicaBinding) Mode() string  { return ModeReplica }

func (NoBinding) isBinding()       {}
func (TemplateBinding) isBinding() {}
func (ReplicaBinding) isBinding()  {}

// DecodeBinding maps a raw template sub-object to its variant. Anything that
// does not match a known shape decodes as NoBinding.
func DecodeBinding(v any) Binding {
	raw, ok := v.(map[string]any)
	if !ok {
		return NoBinding{}
	}

	mode, _ := raw[keyMode].(string)
	switch mode {
	case ModeTemplate:
		name, ok := raw[keyTemplateName].(string)
		if !ok {
			return NoBinding{}
		}
		return TemplateBinding{Name: name}
	case ModeReplica:
		source, ok := raw[keySourceTemplateName].(string)
		if !ok {
			return NoBinding{}
		}
		b := ReplicaBinding{
			SourceTemplateName: source,
			Sync: SyncFlags{
				HierarchyInSync:           boolOr(raw[keyHierarchyInSync], DefaultSyncFlags.HierarchyInSync),
				PropagateHierarchyChanges: boolOr(raw[keyPropagateChanges], DefaultSyncFlags.PropagateHierarchyChanges),
				IgnoreHierarchyChanges:    boolOr(raw[keyIgnoreChanges], DefaultSyncFlags.IgnoreHierarchyChanges),
			},
		}
		if comps, ok := raw[keyComponents].([]any); ok {
			b.Components = comps
		}
		return b
	default:
		return NoBinding{}
	}
}

// mergeReplica rewrites raw in place into a replica of source. Mode, source
// and template name are always set; sync flags and components only when
// absent, so repeated merges are a fixed point.
func mergeReplica(raw map[string]any, source string) {
	raw[keyMode] = ModeReplica
	raw[keySourceTemplateName] = source
	raw[keyTemplateName] = ""

	setIfAbsent(raw, keyHierarchyInSync, DefaultSyncFlags.HierarchyInSync)
	setIfAbsent(raw, keyPropagateChanges, DefaultSyncFlags.PropagateHierarchyChanges)
	setIfAbsent(raw, keyIgnoreChanges, DefaultSyncFlags.IgnoreHierarchyChanges)
	setIfAbsent(raw, keyComponents, []any{})
}

func setIfAbsent(raw map[string]any, key string, value any) {
	if _, ok := raw[key]; !ok {
		raw[key] = value
	}
}

func boolOr(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}
