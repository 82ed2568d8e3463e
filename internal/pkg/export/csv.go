// Package export renders report rows as CSV downloads.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ougirez/welfare-portal/internal/domain"
)

const timestampLayout = "2006-01-02T15-04-05"

// FileName builds {report}_{filtered|all}_{timestamp}.csv.
func FileName(report string, filtered bool, now time.Time) string {
	scope := "all"
	if filtered {
		scope = "filtered"
	}
	return fmt.Sprintf("%s_%s_%s.csv", report, scope, now.UTC().Format(timestampLayout))
}

// WriteCSV writes a header line of column labels and one line per row.
// Every field is quoted and inner quotes are doubled. It returns the
// number of bytes written.
func WriteCSV(w io.Writer, columns []domain.Column, rows []domain.ReportRow) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	fields := make([]string, len(columns))
	for i, c := range columns {
		fields[i] = c.Label
	}
	if err := writeLine(bw, fields); err != nil {
		return cw.n, err
	}

	for _, row := range rows {
		for i, c := range columns {
			fields[i] = Cell(row[c.Key])
		}
		if err := writeLine(bw, fields); err != nil {
			return cw.n, err
		}
	}

	err := bw.Flush()
	return cw.n, err
}

func writeLine(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(Quote(f)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

// Quote wraps s in double quotes, doubling any quote inside it.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Cell renders a decoded JSON value the way the portal shows it.
func Cell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return val.String()
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, p := range val {
			parts = append(parts, Cell(p))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(val)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
