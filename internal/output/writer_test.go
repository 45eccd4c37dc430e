package output

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/zx06/ccprofile/internal/errors"
)

type tableFormatterData struct{}

func (tableFormatterData) ToTableData() ([]string, []map[string]any, bool) {
	return []string{"name", "provider", "active"}, []map[string]any{
		{"name": "work", "provider": "claude", "active": true},
		{"name": "z", "provider": "zai", "active": false, "extra": "ignored"},
	}, true
}

type notATable struct{}

func (notATable) ToTableData() ([]string, []map[string]any, bool) { return nil, nil, false }

func TestWriteOK_JSONEnvelope(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatJSON, map[string]any{"k": "v"}); err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.OK || env.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteOK_JSONDoesNotEscapeHTML(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatJSON, map[string]any{"export": "a<b>&c"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "a<b>&c") {
		t.Fatalf("html should not be escaped: %s", out.String())
	}
}

func TestWriteError_JSONEnvelope(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.New(errors.CodeCfgInvalid, "bad", map[string]any{"x": 1})
	if err := w.WriteError(FormatJSON, xe); err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.OK || env.Error == nil || env.Error.Code != errors.CodeCfgInvalid {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteError_WithCause(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	cause := stderrors.New("underlying error")
	xe := errors.Wrap(errors.CodeStorageFailed, "keyring failed", nil, cause)
	if err := w.WriteError(FormatJSON, xe); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "underlying error") {
		t.Errorf("error output should not expose cause: %s", out.String())
	}
}

func TestWriteOK_YAMLFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatYAML, map[string]any{"version": "1.0.0"}); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	if !strings.Contains(result, "ok: true") {
		t.Errorf("YAML should contain 'ok: true', got: %s", result)
	}
	if !strings.Contains(result, "version: 1.0.0") {
		t.Errorf("YAML should contain version, got: %s", result)
	}
}

func TestWriteOK_TableFormat_TableFormatter(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatTable, tableFormatterData{}); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	lines := strings.Split(strings.TrimSpace(result), "\n")
	if !strings.HasPrefix(lines[0], "name") || !strings.Contains(lines[0], "provider") {
		t.Errorf("first line should be header, got: %q", lines[0])
	}
	if !strings.Contains(result, "work") || !strings.Contains(result, "zai") {
		t.Errorf("table should contain row data, got: %s", result)
	}
	if strings.Contains(result, "ignored") {
		t.Errorf("columns not listed should not be rendered, got: %s", result)
	}
	if !strings.Contains(result, "(2 rows)") {
		t.Errorf("table should contain row count, got: %s", result)
	}
	if strings.Contains(result, "schema_version") {
		t.Errorf("table format should not contain schema_version, got: %s", result)
	}
}

func TestWriteOK_TableFormat_KeyValue(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	data := struct {
		Version string `json:"version"`
		Count   int    `json:"count"`
	}{"1.0.0", 3}
	if err := w.WriteOK(FormatTable, data); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	if !strings.Contains(result, "version") || !strings.Contains(result, "1.0.0") || !strings.Contains(result, "3") {
		t.Errorf("table should contain key/value data, got: %s", result)
	}
}

func TestWriteOK_TableFormat_FormatterDeclines(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatTable, notATable{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "rows)") {
		t.Errorf("declined formatter should not render as rows: %s", out.String())
	}
}

func TestWriteOK_CSVFormat_TableFormatter(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatCSV, tableFormatterData{}); err != nil {
		t.Fatal(err)
	}
	want := "name,provider,active\nwork,claude,true\nz,zai,false\n"
	if out.String() != want {
		t.Fatalf("csv=%q want %q", out.String(), want)
	}
}

func TestWriteOK_CSVFormat_KeyValue(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatCSV, map[string]any{"b": nil, "a": "x"}); err != nil {
		t.Fatal(err)
	}
	want := "key,value\na,x\nb,\n"
	if out.String() != want {
		t.Fatalf("csv=%q want %q", out.String(), want)
	}
}

func TestWriteError_TableFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.New(errors.CodeProfileNotFound, "profile not found", map[string]any{"profile": "x"})
	if err := w.WriteError(FormatTable, xe); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	if !strings.Contains(result, "CCP_PROFILE_NOT_FOUND") || !strings.Contains(result, "profile not found") {
		t.Errorf("unexpected table error output: %s", result)
	}
	if !strings.Contains(result, "error.details.profile") {
		t.Errorf("details should be rendered: %s", result)
	}
}

func TestWriteError_CSVFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.New(errors.CodeLockTimeout, "timed out", nil)
	if err := w.WriteError(FormatCSV, xe); err != nil {
		t.Fatal(err)
	}
	want := "error.code,error.message\nCCP_LOCK_TIMEOUT,timed out\n"
	if out.String() != want {
		t.Fatalf("csv=%q want %q", out.String(), want)
	}
}

func TestIsValid(t *testing.T) {
	for _, f := range []Format{FormatAuto, FormatJSON, FormatYAML, FormatTable, FormatCSV} {
		if !IsValid(f) {
			t.Errorf("%s should be valid", f)
		}
	}
	if IsValid("xml") {
		t.Error("xml should be invalid")
	}
}

func TestWriteOK_InvalidFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	err := w.WriteOK("xml", nil)
	if xe, ok := errors.As(err); !ok || xe.Code != errors.CodeCfgInvalid {
		t.Fatalf("expected CCP_CFG_INVALID, got %v", err)
	}
}

func TestFormatCellValue(t *testing.T) {
	if got := formatCellValue(nil, "<null>"); got != "<null>" {
		t.Fatalf("expected null placeholder, got %q", got)
	}
	if got := formatCellValue(float64(10), "<null>"); got != "10" {
		t.Fatalf("expected integer float to render without decimals, got %q", got)
	}
	if got := formatCellValue(float64(10.5), "<null>"); got != "10.5" {
		t.Fatalf("expected float to render with decimals, got %q", got)
	}
	if got := formatCellValue([]string{"a", "b"}, ""); got != "a,b" {
		t.Fatalf("got %q", got)
	}
	if got := formatCellValue(map[string]any{"k": 1}, ""); got != `{"k":1}` {
		t.Fatalf("got %q", got)
	}
}

func TestWriteOK_YAMLFormat_EmptyData(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatYAML, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "ok: true") {
		t.Errorf("YAML should contain 'ok: true', got: %s", out.String())
	}
}

func TestWriteOK_TableFormat_NilData(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatTable, nil); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Fatalf("nil data should render nothing, got %q", out.String())
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"table", FormatTable, false},
		{"xml", "", true},
	}
	for _, tc := range cases {
		got, xe := Parse(tc.in)
		if tc.wantErr {
			if xe == nil || xe.Code != errors.CodeCfgInvalid {
				t.Errorf("Parse(%q) want CCP_CFG_INVALID, got %v", tc.in, xe)
			}
			continue
		}
		if xe != nil || got != tc.want {
			t.Errorf("Parse(%q)=%q,%v want %q", tc.in, got, xe, tc.want)
		}
	}
}

func TestFormat_ResolveAndIsDocument(t *testing.T) {
	if FormatAuto.Resolve(true) != FormatTable || FormatAuto.Resolve(false) != FormatJSON {
		t.Fatal("auto should resolve to table on a terminal and json otherwise")
	}
	if FormatCSV.Resolve(true) != FormatCSV {
		t.Fatal("explicit formats are kept")
	}
	if !FormatJSON.IsDocument() || !FormatYAML.IsDocument() || FormatTable.IsDocument() || FormatAuto.IsDocument() {
		t.Fatal("only json and yaml are export document formats")
	}
}

func TestFailure_CarriesExitCode(t *testing.T) {
	env := Failure(errors.New(errors.CodeProfileNotFound, "profile not found", nil))
	if env.OK || env.Error.ExitCode != int(errors.ExitProfile) {
		t.Fatalf("env=%+v", env.Error)
	}
	if env := Failure(nil); env.Error.Code != errors.CodeInternal {
		t.Fatalf("nil error should become internal, got %+v", env.Error)
	}
}

func TestWrite_WarningsInJSONAndTable(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.Write(FormatJSON, Success(map[string]any{"profile": "work"}, "OAuth token expires in 5 minutes")); err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if len(env.Warnings) != 1 || env.Warnings[0] != "OAuth token expires in 5 minutes" {
		t.Fatalf("warnings=%v", env.Warnings)
	}

	out.Reset()
	if err := w.Write(FormatTable, Success(map[string]any{"profile": "work"}, "expired")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "warning: expired") {
		t.Fatalf("table should list warnings: %q", out.String())
	}
}
