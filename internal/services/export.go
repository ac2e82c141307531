package services

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/techbench/gradebook/internal/models"
)

// CSVHeader is the fixed column order of the project export.
var CSVHeader = []string{"SERIAL", "BRAND", "MODEL", "CPU", "SSD", "MEMORY", "OBSERVATIONS", "TOUCHSCREEN", "TECHNICIAN", "DATE"}

// exportTimeLayout renders dates as UTC ISO-8601 with milliseconds.
const exportTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// WriteGradesCSV writes the header line and one line per grade. Every field,
// header included, is wrapped in double quotes with embedded quotes doubled,
// so the output reads back with any RFC 4180 parser.
func WriteGradesCSV(w io.Writer, rows []models.GradeRow) error {
	bw := bufio.NewWriter(w)
	if err := writeCSVLine(bw, CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		err := writeCSVLine(bw, []string{
			r.SerialNumber,
			r.Brand,
			r.Model,
			r.CPU,
			strconv.Itoa(r.SSDGB),
			strconv.Itoa(r.RAMGB),
			r.Observations,
			string(r.TouchStatus),
			r.TechnicianName,
			r.CreatedAt.UTC().Format(exportTimeLayout),
		})
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeCSVLine(bw *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := bw.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(quoteField(f)); err != nil {
			return err
		}
	}
	return bw.WriteByte('\n')
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportFileName builds the attachment name for a project's CSV export.
func ExportFileName(p *models.Project) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(p.Name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "project-" + strconv.FormatUint(uint64(p.ID), 10)
	}
	return slug + "-grades.csv"
}
