package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/danieljhkim/c3crawl/internal/layout"
)

// bindings decodes a layout on disk into uid -> binding.
func bindings(t *testing.T, proj *testProject, rel string) map[uint32]layout.Binding {
	t.Helper()
	doc, err := layout.Decode([]byte(proj.read(t, rel)))
	if err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
	out := make(map[uint32]layout.Binding)
	for _, inst := range doc.Instances() {
		uid, _ := inst.UID()
		out[uid] = inst.Binding()
	}
	return out
}

func TestConvertByUID_Scenario(t *testing.T) {
	proj := newTestProject(t, testLayout{name: "Level1", path: "level1.json", content: level1})
	eng := newTestEngine(t, nil)

	result, err := eng.ConvertByUID(context.Background(), &ConvertByUIDRequest{
		ProjectRoot:  proj.root,
		LayoutPath:   "level1.json",
		UIDs:         []uint32{2},
		TemplateName: "EnemyBase",
	})
	if err != nil {
		t.Fatalf("ConvertByUID: %v", err)
	}
	if result.Modified != 1 || !result.Written {
		t.Errorf("Modified = %d, Written = %v; want 1, true", result.Modified, result.Written)
	}

	got := bindings(t, proj, "level1.json")
	if b, ok := got[1].(layout.TemplateBinding); !ok || b.Name != "EnemyBase" {
		t.Errorf("uid 1 = %#v, want untouched template", got[1])
	}
	replica, ok := got[2].(layout.ReplicaBinding)
	if !ok {
		t.Fatalf("uid 2 = %#v, want replica", got[2])
	}
	if replica.SourceTemplateName != "EnemyBase" || replica.Sync != layout.DefaultSyncFlags {
		t.Errorf("uid 2 replica = %+v", replica)
	}
}

func TestConvertByUID_Idempotent(t *testing.T) {
	proj := newTestProject(t, testLayout{name: "Level1", path: "level1.json", content: level1})
	eng := newTestEngine(t, nil)
	req := &ConvertByUIDRequest{
		ProjectRoot:  proj.root,
		LayoutPath:   "level1.json",
		UIDs:         []uint32{1, 2},
		TemplateName: "EnemyBase",
	}

	if _, err := eng.ConvertByUID(context.Background(), req); err != nil {
		t.Fatalf("first ConvertByUID: %v", err)
	}
	once := proj.read(t, "level1.json")

	if _, err := eng.ConvertByUID(context.Background(), req); err != nil {
		t.Fatalf("second ConvertByUID: %v", err)
	}
	if twice := proj.read(t, "level1.json"); twice != once {
		t.Errorf("second conversion changed the layout:\nonce:\n%s\ntwice:\n%s", once, twice)
	}
}

func TestConvertByUID_ConvertsTemplatesAndDuplicates(t *testing.T) {
	proj := newTestProject(t, testLayout{name: "Dup", path: "dup.json", content: `{"layers": [
	  {"name": "A", "instances": [{"uid": 5, "type": "Enemy", "template": {"mode": "template", "templateName": "Old"}}]},
	  {"name": "B", "instances": [{"uid": 5, "type": "Enemy"}, {"uid": 6, "type": "Enemy"}]}
	]}`})
	eng := newTestEngine(t, nil)

	result, err := eng.ConvertByUID(context.Background(), &ConvertByUIDRequest{
		ProjectRoot:  proj.root,
		LayoutPath:   "dup.json",
		UIDs:         []uint32{5},
		TemplateName: "New",
	})
	if err != nil {
		t.Fatalf("ConvertByUID: %v", err)
	}
	if result.Modified != 2 {
		t.Errorf("Modified = %d, want 2 (every uid 5 instance)", result.Modified)
	}

	doc, err := layout.Decode([]byte(proj.read(t, "dup.json")))
	if err != nil {
		t.Fatal(err)
	}
	for _, inst := range doc.Instances() {
		uid, _ := inst.UID()
		_, isReplica := inst.Binding().(layout.ReplicaBinding)
		if uid == 5 && !isReplica {
			t.Errorf("uid 5 in layer %s not converted: %#v", inst.Layer().Name(), inst.Binding())
		}
		if uid == 6 && isReplica {
			t.Error("uid 6 must not be converted")
		}
	}
}

func TestConvertByUID_NoMatchStillWrites(t *testing.T) {
	proj := newTestProject(t, testLayout{name: "Level1", path: "level1.json", content: level1})
	store := newRecordingStore()
	eng := newTestEngine(t, store)

	result, err := eng.ConvertByUID(context.Background(), &ConvertByUIDRequest{
		ProjectRoot:  proj.root,
		LayoutPath:   "level1.json",
		UIDs:         []uint32{99},
		TemplateName: "EnemyBase",
	})
	if err != nil {
		t.Fatalf("ConvertByUID: %v", err)
	}
	if result.Modified != 0 {
		t.Errorf("Modified = %d, want 0", result.Modified)
	}
	if store.writeCount("level1.json") != 1 {
		t.Errorf("layout written %d times, want 1", store.writeCount("level1.json"))
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != WarnNoMatch {
		t.Errorf("warnings = %+v, want one no_match", result.Warnings)
	}
}

func TestConvertByUID_DryRun(t *testing.T) {
	proj := newTestProject(t, testLayout{name: "Level1", path: "level1.json", content: level1})
	eng := newTestEngine(t, nil)

	result, err := eng.ConvertByUID(context.Background(), &ConvertByUIDRequest{
		ProjectRoot:  proj.root,
		LayoutPath:   "level1.json",
		UIDs:         []uint32{2},
		TemplateName: "EnemyBase",
		DryRun:       true,
	})
	if err != nil {
		t.Fatalf("ConvertByUID: %v", err)
	}
	if result.Modified != 1 || result.Written {
		t.Errorf("Modified = %d, Written = %v; want 1, false", result.Modified, result.Written)
	}
	if proj.read(t, "level1.json") != level1 {
		t.Error("dry run modified the layout")
	}
}

func TestConvertByUID_Errors(t *testing.T) {
	proj := newTestProject(t,
		testLayout{name: "Level1", path: "level1.json", content: level1},
		testLayout{name: "Broken", path: "broken.json", content: "[1"},
	)

	tests := []struct {
		name  string
		store LayoutStore
		req   ConvertByUIDRequest
		want  error
	}{
		{
			name: "empty template name",
			req:  ConvertByUIDRequest{LayoutPath: "level1.json", UIDs: []uint32{2}},
			want: ErrValidation,
		},
		{
			name: "missing layout",
			req:  ConvertByUIDRequest{LayoutPath: "nope.json", UIDs: []uint32{2}, TemplateName: "T"},
			want: ErrNotFound,
		},
		{
			name: "malformed layout",
			req:  ConvertByUIDRequest{LayoutPath: "broken.json", UIDs: []uint32{2}, TemplateName: "T"},
			want: ErrParse,
		},
		{
			name:  "write failure",
			store: newRecordingStore("level1.json"),
			req:   ConvertByUIDRequest{LayoutPath: "level1.json", UIDs: []uint32{2}, TemplateName: "T"},
			want:  ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newTestEngine(t, tt.store)
			req := tt.req
			req.ProjectRoot = proj.root
			_, err := eng.ConvertByUID(context.Background(), &req)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConvertByType_Scenario(t *testing.T) {
	proj := newTestProject(t, testLayout{name: "Level1", path: "level1.json", content: level1})
	eng := newTestEngine(t, nil)

	result, err := eng.ConvertByType(context.Background(), &ConvertByTypeRequest{
		ProjectRoot:  proj.root,
		LayoutPaths:  []string{"level1.json"},
		ObjectType:   "Enemy",
		TemplateName: "EnemyBase",
	})
	if err != nil {
		t.Fatalf("ConvertByType: %v", err)
	}
	if result.ModifiedLayouts != 1 || result.ModifiedInstances != 1 {
		t.Errorf("got (%d, %d), want (1, 1)", result.ModifiedLayouts, result.ModifiedInstances)
	}
	if len(result.Layouts) != 1 || result.Layouts[0].SkippedTemplates != 1 {
		t.Errorf("layouts = %+v, want one with a skipped template", result.Layouts)
	}
	want := `Converted 1 instance(s) of type Enemy to replicas of "EnemyBase" across 1 layout(s)`
	if result.Summary != want {
		t.Errorf("Summary = %q, want %q", result.Summary, want)
	}

	got := bindings(t, proj, "level1.json")
	if _, ok := got[1].(layout.TemplateBinding); !ok {
		t.Errorf("uid 1 demoted: %#v", got[1])
	}
	if _, ok := got[2].(layout.ReplicaBinding); !ok {
		t.Errorf("uid 2 not converted: %#v", got[2])
	}
}

func TestConvertByType_ManifestAndUntouchedLayouts(t *testing.T) {
	other := `{"layers": [{"name": "L", "instances": [{"uid": 1, "type": "Coin"}]}]}`
	proj := newTestProject(t,
		testLayout{name: "Level1", path: "level1.json", content: level1},
		testLayout{name: "Coins", path: "coins.json", content: other},
		testLayout{name: "Gone", path: "gone.json"},
	)
	store := newRecordingStore()
	eng := newTestEngine(t, store)

	result, err := eng.ConvertByType(context.Background(), &ConvertByTypeRequest{
		ProjectRoot:  proj.root,
		ObjectType:   "Enemy",
		TemplateName: "EnemyBase",
	})
	if err != nil {
		t.Fatalf("ConvertByType: %v", err)
	}
	if result.ModifiedLayouts != 1 || result.ModifiedInstances != 1 {
		t.Errorf("got (%d, %d), want (1, 1)", result.ModifiedLayouts, result.ModifiedInstances)
	}
	if store.writeCount("coins.json") != 0 {
		t.Error("layout without matches was rewritten")
	}
	if proj.read(t, "coins.json") != other {
		t.Error("untouched layout content changed")
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Kind != WarnStaleEntry {
		t.Errorf("warnings = %+v, want one stale_entry", result.Warnings)
	}
}

func TestConvertByType_NeverTouchesTemplates(t *testing.T) {
	content := `{"layers": [{"name": "L", "instances": [
	  {"uid": 1, "type": "Enemy", "template": {"mode": "template", "templateName": "A", "extra": 1}},
	  {"uid": 2, "type": "Enemy", "template": {"mode": "template", "templateName": "B"}},
	  {"uid": 3, "type": "Enemy", "template": {"mode": "template"}},
	  {"uid": 4, "type": "Enemy", "template": {"mode": "template", "templateName": 7}}
	]}]}`
	proj := newTestProject(t, testLayout{name: "T", path: "t.json", content: content})
	store := newRecordingStore()
	eng := newTestEngine(t, store)

	result, err := eng.ConvertByType(context.Background(), &ConvertByTypeRequest{
		ProjectRoot:  proj.root,
		LayoutPaths:  []string{"t.json"},
		ObjectType:   "Enemy",
		TemplateName: "A",
	})
	if err != nil {
		t.Fatalf("ConvertByType: %v", err)
	}
	if result.ModifiedInstances != 0 || result.ModifiedLayouts != 0 {
		t.Errorf("got (%d, %d), want (0, 0)", result.ModifiedLayouts, result.ModifiedInstances)
	}
	if got := result.Layouts[0].SkippedTemplates; got != 4 {
		t.Errorf("SkippedTemplates = %d, want 4", got)
	}
	if store.writeCount("t.json") != 0 || proj.read(t, "t.json") != content {
		t.Error("layout holding only templates was rewritten")
	}
}

func TestConvertByType_WriteFailureIsolated(t *testing.T) {
	proj := newTestProject(t,
		testLayout{name: "A", path: "a.json", content: level1},
		testLayout{name: "B", path: "b.json", content: level1},
		testLayout{name: "C", path: "c.json", content: level1},
	)
	eng := newTestEngine(t, newRecordingStore("b.json"))

	result, err := eng.ConvertByType(context.Background(), &ConvertByTypeRequest{
		ProjectRoot:  proj.root,
		ObjectType:   "Enemy",
		TemplateName: "EnemyBase",
	})
	if !errors.Is(err, ErrIO) {
		t.Fatalf("error = %v, want ErrIO", err)
	}
	if result == nil {
		t.Fatal("partial result must be returned with the error")
	}
	if result.ModifiedLayouts != 2 || result.ModifiedInstances != 2 {
		t.Errorf("got (%d, %d), want (2, 2)", result.ModifiedLayouts, result.ModifiedInstances)
	}
	if proj.read(t, "b.json") != level1 {
		t.Error("failed layout changed on disk")
	}
	for _, rel := range []string{"a.json", "c.json"} {
		if _, ok := bindings(t, proj, rel)[2].(layout.ReplicaBinding); !ok {
			t.Errorf("%s not converted", rel)
		}
	}
}

func TestConvertByType_ParallelWithDuplicatePaths(t *testing.T) {
	var layouts []testLayout
	var paths []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		rel := "levels/" + name + ".json"
		layouts = append(layouts, testLayout{name: name, path: rel, content: level1})
		paths = append(paths, rel, rel)
	}
	proj := newTestProject(t, layouts...)
	store := newRecordingStore()
	eng := newTestEngine(t, store)
	eng.cfg.Engine.Workers = 4

	result, err := eng.ConvertByType(context.Background(), &ConvertByTypeRequest{
		ProjectRoot:  proj.root,
		LayoutPaths:  paths,
		ObjectType:   "Enemy",
		TemplateName: "EnemyBase",
	})
	if err != nil {
		t.Fatalf("ConvertByType: %v", err)
	}
	if result.ModifiedLayouts != 6 || result.ModifiedInstances != 6 {
		t.Errorf("got (%d, %d), want (6, 6)", result.ModifiedLayouts, result.ModifiedInstances)
	}
	for i, change := range result.Layouts {
		if change.Path != layouts[i].path {
			t.Errorf("Layouts[%d].Path = %q, want %q", i, change.Path, layouts[i].path)
		}
	}
	for _, l := range layouts {
		if n := store.writeCount(l.path); n != 1 {
			t.Errorf("%s written %d times, want 1", l.path, n)
		}
	}
}

func TestConvertByType_DryRun(t *testing.T) {
	proj := newTestProject(t, testLayout{name: "Level1", path: "level1.json", content: level1})
	eng := newTestEngine(t, nil)

	result, err := eng.ConvertByType(context.Background(), &ConvertByTypeRequest{
		ProjectRoot:  proj.root,
		ObjectType:   "Enemy",
		TemplateName: "EnemyBase",
		DryRun:       true,
	})
	if err != nil {
		t.Fatalf("ConvertByType: %v", err)
	}
	if result.ModifiedInstances != 1 || result.Layouts[0].Written {
		t.Errorf("result = %+v", result)
	}
	if proj.read(t, "level1.json") != level1 {
		t.Error("dry run modified the layout")
	}
}

func TestConvertByType_Validation(t *testing.T) {
	eng := newTestEngine(t, nil)

	tests := []struct {
		name string
		req  ConvertByTypeRequest
	}{
		{name: "empty type", req: ConvertByTypeRequest{TemplateName: "T", LayoutPaths: []string{}}},
		{name: "empty template", req: ConvertByTypeRequest{ObjectType: "Enemy", LayoutPaths: []string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.ConvertByType(context.Background(), &tt.req)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestConvertByType_Cancelled(t *testing.T) {
	proj := newTestProject(t, testLayout{name: "Level1", path: "level1.json", content: level1})
	eng := newTestEngine(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := eng.ConvertByType(ctx, &ConvertByTypeRequest{
		ProjectRoot:  proj.root,
		ObjectType:   "Enemy",
		TemplateName: "EnemyBase",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if result.ModifiedInstances != 0 || proj.read(t, "level1.json") != level1 {
		t.Error("cancelled run must not convert anything")
	}
}
