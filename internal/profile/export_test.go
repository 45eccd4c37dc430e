package profile

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/zx06/ccprofile/internal/credential"
	"github.com/zx06/ccprofile/internal/errors"
)

const (
	workToken = "sk-ant-REDACTED"
	zaiToken  = "0123456789abcdef.0123456789"
)

func seed(t *testing.T, r *Registry) {
	t.Helper()
	for _, p := range []Profile{
		{Name: "work", Token: workToken, Metadata: map[string]any{"description": "work account", "created": "2024-01-01T00:00:00Z"}},
		{Name: "z", Token: zaiToken, Provider: credential.ProviderZAI},
	} {
		if xe := r.Add(p); xe != nil {
			t.Fatal(xe)
		}
	}
}

var fixedNow = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

func TestExportImport_UnmaskedRoundTrip(t *testing.T) {
	src := newTestRegistry(t)
	seed(t, src)
	list, xe := src.ListAll()
	if xe != nil {
		t.Fatal(xe)
	}

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			data, err := BuildExport(list, true).Encode(format)
			if err != nil {
				t.Fatal(err)
			}
			doc, xe := ParseImport(data)
			if xe != nil {
				t.Fatal(xe)
			}

			dst := newTestRegistry(t)
			res, xe := dst.Import(doc, ImportOptions{Now: fixedNow})
			if xe != nil {
				t.Fatal(xe)
			}
			if len(res.Imported) != 2 || len(res.Skipped) != 0 {
				t.Fatalf("result=%+v", res)
			}
			got, xe := dst.Get("work")
			if xe != nil {
				t.Fatal(xe)
			}
			if got.Token != workToken {
				t.Fatalf("token=%q", got.Token)
			}
			if got.Description() != "work account" {
				t.Fatalf("metadata lost: %v", got.Metadata)
			}
			if got.Metadata["imported"] != "2025-01-02T03:04:05Z" {
				t.Fatalf("imported stamp=%v", got.Metadata["imported"])
			}
			z, xe := dst.Get("z")
			if xe != nil || z.Token != zaiToken || z.Provider != credential.ProviderZAI {
				t.Fatalf("z=%+v xe=%v", z, xe)
			}
			names, _ := dst.Names()
			if len(names) != 2 {
				t.Fatalf("index=%v", names)
			}
		})
	}
}

func TestImport_MaskedTokenPrompts(t *testing.T) {
	src := newTestRegistry(t)
	seed(t, src)
	list, _ := src.ListAll()
	data, err := BuildExport(list, false).Encode("json")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), workToken) {
		t.Fatal("masked export must not contain the real token")
	}
	doc, xe := ParseImport(data)
	if xe != nil {
		t.Fatal(xe)
	}

	// 不提供替换值：全部跳过
	dst := newTestRegistry(t)
	var prompted []string
	res, xe := dst.Import(doc, ImportOptions{Prompt: func(name, reason string) (string, error) {
		prompted = append(prompted, name+":"+reason)
		return "", nil
	}})
	if xe != nil {
		t.Fatal(xe)
	}
	if len(res.Imported) != 0 || len(res.Skipped) != 2 {
		t.Fatalf("result=%+v", res)
	}
	if len(prompted) != 2 || !strings.HasSuffix(prompted[0], ":masked") {
		t.Fatalf("prompted=%v", prompted)
	}

	// 提供替换值：校验后导入
	res, xe = dst.Import(doc, ImportOptions{Prompt: func(name, reason string) (string, error) {
		if name == "work" {
			return workToken, nil
		}
		return "bad token", nil
	}})
	if xe != nil {
		t.Fatal(xe)
	}
	if len(res.Imported) != 1 || res.Imported[0] != "work" {
		t.Fatalf("result=%+v", res)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != SkipInvalid {
		t.Fatalf("skipped=%+v", res.Skipped)
	}
	got, _ := dst.Get("work")
	if got.Token != workToken {
		t.Fatalf("token=%q", got.Token)
	}
}

func TestImport_PrefixAndExisting(t *testing.T) {
	r := newTestRegistry(t)
	seed(t, r)
	doc := ExportDocument{"work": {Token: workToken, Provider: "claude"}}

	res, xe := r.Import(doc, ImportOptions{})
	if xe != nil {
		t.Fatal(xe)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != SkipExists {
		t.Fatalf("existing profile should be skipped: %+v", res)
	}

	res, xe = r.Import(doc, ImportOptions{Prefix: "team-"})
	if xe != nil {
		t.Fatal(xe)
	}
	if len(res.Imported) != 1 || res.Imported[0] != "team-work" {
		t.Fatalf("result=%+v", res)
	}
	names, _ := r.Names()
	if names[len(names)-1] != "team-work" {
		t.Fatalf("imported name should be appended: %v", names)
	}

	res, xe = r.Import(doc, ImportOptions{Replace: true})
	if xe != nil || len(res.Imported) != 1 {
		t.Fatalf("replace should import: %+v %v", res, xe)
	}
}

func TestImport_NoPromptSkipsInvalid(t *testing.T) {
	r := newTestRegistry(t)
	doc := ExportDocument{
		"bad":     {Token: "short", Provider: "claude"},
		"missing": {Provider: "claude"},
		"weird":   {Token: workToken, Provider: "openai"},
	}
	res, xe := r.Import(doc, ImportOptions{})
	if xe != nil {
		t.Fatal(xe)
	}
	if len(res.Imported) != 0 || len(res.Skipped) != 3 {
		t.Fatalf("result=%+v", res)
	}
}

func TestImport_PromptErrorKeepsIndexConsistent(t *testing.T) {
	r := newTestRegistry(t)
	doc := ExportDocument{
		"a": {Token: workToken, Provider: "claude"},
		"b": {Token: "sk-a****************", Provider: "claude"},
	}
	cancelled := errors.New(errors.CodeCancelled, "input cancelled", nil)
	res, xe := r.Import(doc, ImportOptions{Prompt: func(name, reason string) (string, error) {
		return "", cancelled
	}})
	if xe == nil || xe.Code != errors.CodeCancelled {
		t.Fatalf("want cancelled, got %v", xe)
	}
	if len(res.Imported) != 1 || res.Imported[0] != "a" {
		t.Fatalf("result=%+v", res)
	}

	names, xe := r.Names()
	if xe != nil {
		t.Fatal(xe)
	}
	if !slices.Equal(names, []string{"a"}) {
		t.Fatalf("every stored record must be indexed, names=%v", names)
	}
	list, xe := r.ListAll()
	if xe != nil {
		t.Fatal(xe)
	}
	if _, ok := list.Find("a"); !ok {
		t.Fatalf("imported profile not listable: %+v", list)
	}
}

func TestParseImport_Invalid(t *testing.T) {
	for _, in := range []string{"", "[1,2]", "- a\n- b\n", "null"} {
		if _, xe := ParseImport([]byte(in)); xe == nil {
			t.Errorf("ParseImport(%q) should fail", in)
		}
	}
}
