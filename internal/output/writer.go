package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/zx06/ccprofile/internal/errors"
)

// TableFormatter 由需要按行渲染的数据实现（如 profile 列表）。
// ok=false 时回退到通用的 key/value 渲染。
type TableFormatter interface {
	ToTableData() (columns []string, rows []map[string]any, ok bool)
}

const nullPlaceholder = "<null>"

type Writer struct {
	Out io.Writer
	Err io.Writer
}

func New(out, err io.Writer) Writer {
	return Writer{Out: out, Err: err}
}

func (w Writer) WriteOK(format Format, data any) error {
	return w.Write(format, Success(data))
}

func (w Writer) WriteError(format Format, xe *errors.XError) error {
	return w.Write(format, Failure(xe))
}

// Write 输出一个已构造好的外壳（例如带 warnings 的成功结果）。
func (w Writer) Write(format Format, env Envelope) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w.Out)
		enc.SetEscapeHTML(false)
		return enc.Encode(env)
	case FormatYAML:
		b, err := yaml.Marshal(env)
		if err != nil {
			return err
		}
		_, err = w.Out.Write(b)
		if err != nil {
			return err
		}
		if len(b) == 0 || b[len(b)-1] != '\n' {
			_, _ = w.Out.Write([]byte("\n"))
		}
		return nil
	case FormatTable:
		return writeTable(w.Out, env)
	case FormatCSV:
		return writeCSV(w.Out, env)
	default:
		return errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{"format": string(format)})
	}
}

func tableData(data any) ([]string, []map[string]any, bool) {
	if tf, ok := data.(TableFormatter); ok {
		return tf.ToTableData()
	}
	return nil, nil, false
}

func writeTable(out io.Writer, env Envelope) error {
	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	if !env.OK {
		if env.Error != nil {
			_, _ = fmt.Fprintf(tw, "error.code\t%s\n", env.Error.Code)
			_, _ = fmt.Fprintf(tw, "error.message\t%s\n", env.Error.Message)
			_, _ = fmt.Fprintf(tw, "error.exit_code\t%d\n", env.Error.ExitCode)
			for _, k := range sortedKeys(env.Error.Details) {
				_, _ = fmt.Fprintf(tw, "error.details.%s\t%s\n", k, formatCellValue(env.Error.Details[k], nullPlaceholder))
			}
		}
		return tw.Flush()
	}

	if columns, rows, ok := tableData(env.Data); ok {
		_, _ = fmt.Fprintln(tw, strings.Join(columns, "\t"))
		seps := make([]string, len(columns))
		for i, c := range columns {
			seps[i] = strings.Repeat("-", len(c))
		}
		_, _ = fmt.Fprintln(tw, strings.Join(seps, "\t"))
		for _, row := range rows {
			cells := make([]string, len(columns))
			for i, c := range columns {
				cells[i] = formatCellValue(row[c], nullPlaceholder)
			}
			_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "\n(%d rows)\n", len(rows)); err != nil {
			return err
		}
		return writeWarnings(out, env.Warnings)
	}

	kv := toMap(env.Data)
	for _, k := range sortedKeys(kv) {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", k, formatCellValue(kv[k], nullPlaceholder))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeWarnings(out, env.Warnings)
}

func writeWarnings(out io.Writer, warnings []string) error {
	for _, w := range warnings {
		if _, err := fmt.Fprintf(out, "warning: %s\n", w); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(out io.Writer, env Envelope) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()
	if !env.OK {
		_ = cw.Write([]string{"error.code", "error.message"})
		if env.Error != nil {
			_ = cw.Write([]string{string(env.Error.Code), env.Error.Message})
		}
		cw.Flush()
		return cw.Error()
	}

	if columns, rows, ok := tableData(env.Data); ok {
		_ = cw.Write(columns)
		for _, row := range rows {
			rec := make([]string, len(columns))
			for i, c := range columns {
				rec[i] = formatCellValue(row[c], "")
			}
			_ = cw.Write(rec)
		}
		cw.Flush()
		return cw.Error()
	}

	kv := toMap(env.Data)
	_ = cw.Write([]string{"key", "value"})
	for _, k := range sortedKeys(kv) {
		_ = cw.Write([]string{k, formatCellValue(kv[k], "")})
	}
	cw.Flush()
	return cw.Error()
}

// toMap 把任意数据通过 JSON 转成顶层 map；非对象数据放在 "data" 下。
func toMap(data any) map[string]any {
	if data == nil {
		return nil
	}
	if m, ok := data.(map[string]any); ok {
		return m
	}
	b, err := json.Marshal(data)
	if err != nil {
		return map[string]any{"data": fmt.Sprint(data)}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		var v any
		_ = json.Unmarshal(b, &v)
		return map[string]any{"data": v}
	}
	return m
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatCellValue(v any, null string) string {
	switch t := v.(type) {
	case nil:
		return null
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int, int64, int32, uint, uint64:
		return fmt.Sprint(t)
	case []string:
		return strings.Join(t, ",")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
