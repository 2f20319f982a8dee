package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeBinding(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Binding
	}{
		{
			name: "absent",
			raw:  nil,
			want: NoBinding{},
		},
		{
			name: "not an object",
			raw:  "template",
			want: NoBinding{},
		},
		{
			name: "template",
			raw:  map[string]any{"mode": "template", "templateName": "EnemyBase"},
			want: TemplateBinding{Name: "EnemyBase"},
		},
		{
			name: "template without name",
			raw:  map[string]any{"mode": "template"},
			want: NoBinding{},
		},
		{
			name: "replica with defaults",
			raw:  map[string]any{"mode": "replica", "sourceTemplateName": "EnemyBase"},
			want: ReplicaBinding{SourceTemplateName: "EnemyBase", Sync: DefaultSyncFlags},
		},
		{
			name: "replica with explicit flags",
			raw: map[string]any{
				"mode":                                  "replica",
				"sourceTemplateName":                    "EnemyBase",
				"replicaHierarchyInSyncWithTemplate":    false,
				"templatePropagateHierarchyChanges":     false,
				"replicaIgnoreTemplateHierarchyChanges": true,
				"components":                            []any{"Physics"},
			},
			want: ReplicaBinding{
				SourceTemplateName: "EnemyBase",
				Sync:               SyncFlags{IgnoreHierarchyChanges: true},
				Components:         []any{"Physics"},
			},
		},
		{
			name: "replica without source",
			raw:  map[string]any{"mode": "replica"},
			want: NoBinding{},
		},
		{
			name: "unknown mode",
			raw:  map[string]any{"mode": "prefab", "templateName": "X"},
			want: NoBinding{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeBinding(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeBinding() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeReplica(t *testing.T) {
	t.Run("fills absent fields", func(t *testing.T) {
		raw := map[string]any{"mode": "template", "templateName": "Old"}
		mergeReplica(raw, "EnemyBase")

		want := map[string]any{
			"mode":                                  "replica",
			"sourceTemplateName":                    "EnemyBase",
			"templateName":                          "",
			"replicaHierarchyInSyncWithTemplate":    true,
			"templatePropagateHierarchyChanges":     true,
			"replicaIgnoreTemplateHierarchyChanges": false,
			"components":                            []any{},
		}
		if diff := cmp.Diff(want, raw); diff != "" {
			t.Errorf("mergeReplica() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("keeps existing flags and components", func(t *testing.T) {
		raw := map[string]any{
			"mode":                               "replica",
			"sourceTemplateName":                 "Other",
			"replicaHierarchyInSyncWithTemplate": false,
			"components":                         []any{"Tween"},
			"extra":                              "kept",
		}
		mergeReplica(raw, "EnemyBase")

		if raw["sourceTemplateName"] != "EnemyBase" {
			t.Errorf("sourceTemplateName = %v", raw["sourceTemplateName"])
		}
		if raw["replicaHierarchyInSyncWithTemplate"] != false {
			t.Error("existing sync flag was overwritten")
		}
		if diff := cmp.Diff([]any{"Tween"}, raw["components"]); diff != "" {
			t.Errorf("components changed:\n%s", diff)
		}
		if raw["extra"] != "kept" {
			t.Error("unknown key was dropped")
		}
	})
}
