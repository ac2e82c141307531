package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/techbench/gradebook/internal/models"
)

func TestNormalizeInt(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want int
	}{
		{"plain", "85", 85},
		{"padded", "  42 ", 42},
		{"negative", "-3", -3},
		{"decimal truncated", "85.7", 85},
		{"trailing junk", "100%", 100},
		{"empty", "", -1},
		{"letters", "abc", -1},
		{"sign only", "-", -1},
		{"nil", nil, -1},
		{"int", 7, 7},
		{"float", 12.9, 12},
		{"nan", math.NaN(), -1},
		{"inf", math.Inf(1), -1},
		{"bool", true, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeInt(tt.raw, -1))
		})
	}
}

func TestNormalizeBool(t *testing.T) {
	for _, raw := range []any{true, "true", "on", "1", 1} {
		assert.True(t, NormalizeBool(raw), "%#v should be true", raw)
	}
	for _, raw := range []any{nil, false, "", "0", 0, "off", "false", "TRUE", "yes", 2, "on "} {
		assert.False(t, NormalizeBool(raw), "%#v should be false", raw)
	}
}

func TestNormalizeTouchStatus(t *testing.T) {
	tests := map[string]models.TouchStatus{
		"TOUCH":     models.TouchYes,
		"touch":     models.TouchYes,
		" no_touch": models.TouchNo,
		"Broken":    models.TouchBroken,
		"":          models.TouchNo,
		"garbage":   models.TouchNo,
		"TOUCHED":   models.TouchNo,
	}
	for raw, want := range tests {
		assert.Equal(t, want, NormalizeTouchStatus(raw), "input %q", raw)
	}
}

func TestBuildPresetLabel(t *testing.T) {
	tests := []struct {
		name  string
		parts LabelParts
		want  string
	}{
		{"full", LabelParts{Brand: "Dell", Model: "Latitude 5490", CPU: "i5-8350U", RAMGB: 8, SSDGB: 256}, "Dell Latitude 5490 i5-8350U 8/256"},
		{"no sizes", LabelParts{Brand: "HP", Model: "EliteBook 840"}, "HP EliteBook 840"},
		{"missing ssd", LabelParts{Brand: "HP", Model: "800 G4", RAMGB: 16}, "HP 800 G4"},
		{"skips empty", LabelParts{Brand: "Lenovo", CPU: " ", RAMGB: 8, SSDGB: 128}, "Lenovo 8/128"},
		{"empty", LabelParts{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPresetLabel(tt.parts))
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "Dell", ResolveString(" Dell ", "HP"))
	assert.Equal(t, "HP", ResolveString("  ", " HP"))
	assert.Equal(t, "", ResolveString("", ""))
	assert.Equal(t, 16, ResolveInt(16, 8))
	assert.Equal(t, 8, ResolveInt(0, 8))
	assert.Equal(t, 8, ResolveInt(-4, 8))
}
