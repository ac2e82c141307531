package validation

import (
	"math"
	"strconv"
	"strings"

	"github.com/techbench/gradebook/internal/models"
)

// NormalizeInt reads a decimal integer from form-ish input. Strings are read
// like an HTML number field: leading blanks, an optional sign and the leading
// digits ("85.7" and "85%" both give 85). Floats are truncated. Anything
// without a leading integer, or a non-finite float, yields fallback.
func NormalizeInt(raw any, fallback int) int {
	switch n := raw.(type) {
	case nil:
		return fallback
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return int(n)
	case float32:
		return NormalizeInt(float64(n), fallback)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fallback
		}
		return int(n)
	case string:
		return parseLeadingInt(n, fallback)
	default:
		return fallback
	}
}

func parseLeadingInt(s string, fallback int) int {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return fallback
	}
	n := 0
	for _, c := range s[:end] {
		if n > (math.MaxInt-9)/10 {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}

// NormalizeBool follows checkbox semantics: an unchecked box is simply absent.
// Only true, "true", "on", "1" and the number 1 count as true.
func NormalizeBool(raw any) bool {
	switch b := raw.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "on" || b == "1"
	case int:
		return b == 1
	case int64:
		return b == 1
	case float64:
		return b == 1
	default:
		return false
	}
}

// NormalizeTouchStatus accepts TOUCH, NO_TOUCH or BROKEN in any case and
// falls back to NO_TOUCH for everything else.
func NormalizeTouchStatus(raw string) models.TouchStatus {
	switch s := models.TouchStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case models.TouchYes, models.TouchNo, models.TouchBroken:
		return s
	default:
		return models.TouchNo
	}
}

// LabelParts are the preset fields a generated label is built from.
type LabelParts struct {
	Brand string
	Model string
	CPU   string
	RAMGB int
	SSDGB int
}

// BuildPresetLabel joins the non-empty text parts with spaces and appends
// "ram/ssd" when both sizes are set, e.g. "Dell Latitude 5490 i5-8350U 8/256".
func BuildPresetLabel(p LabelParts) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{p.Brand, p.Model, p.CPU} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if p.RAMGB != 0 && p.SSDGB != 0 {
		parts = append(parts, strconv.Itoa(p.RAMGB)+"/"+strconv.Itoa(p.SSDGB))
	}
	return strings.Join(parts, " ")
}

// ResolveString returns the trimmed submitted value, or the trimmed fallback
// when nothing was submitted.
func ResolveString(submitted, fallback string) string {
	if s := strings.TrimSpace(submitted); s != "" {
		return s
	}
	return strings.TrimSpace(fallback)
}

// ResolveInt returns submitted when it is positive, otherwise fallback.
func ResolveInt(submitted, fallback int) int {
	if submitted > 0 {
		return submitted
	}
	return fallback
}
