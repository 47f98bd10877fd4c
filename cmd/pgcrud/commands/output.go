package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"pgcrud/data/crud"
	"pgcrud/data/named"
	"pgcrud/errors"
)

var (
	sqlColor     = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen, color.Bold)
	labelColor   = color.New(color.FgYellow)
)

// parseParams 解析 JSON 对象形式的 flag，保留键顺序
func parseParams(flag, raw string) (*named.Params, error) {
	if raw == "" {
		return named.New(), nil
	}
	p, err := named.FromJSON([]byte(raw))
	if err != nil {
		return nil, errors.NewErrorWithCause(errors.ErrCodeInvalidInput, "--"+flag+" must be a JSON object", err)
	}
	return p, nil
}

// printSQL 输出改写后的 SQL 与按位置编号的参数值，编号与占位符形式无关
func printSQL(w io.Writer, sql string, args []any) {
	fmt.Fprintln(w, sqlColor.Sprint(sql))
	for i, v := range args {
		fmt.Fprintf(w, "%s %s\n", labelColor.Sprintf("[%d]", i+1), formatCell(v))
	}
}

// printRows 以表格输出行集合；行本身无列顺序，列名按字典序排列
func printRows(w io.Writer, rows []crud.Row) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	seen := make(map[string]struct{})
	var cols []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	data := pterm.TableData{cols}
	for _, row := range rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = formatCell(row[c])
		}
		data = append(data, line)
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func printResult(w io.Writer, res crud.Result) error {
	successColor.Fprintf(w, "✓ %d rows affected\n", res.RowsAffected)
	if res.LastInsertID != 0 {
		fmt.Fprintf(w, "%s %d\n", labelColor.Sprint("last insert id:"), res.LastInsertID)
	}
	if len(res.Rows) > 0 {
		return printRows(w, res.Rows)
	}
	return nil
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}
