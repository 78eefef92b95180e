package palette

import (
	"regexp"
	"testing"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func TestColorForResolutionOrder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Color
	}{
		{"exact", "defense", "#d62728"},
		{"exact case-insensitive", "DEFENSE", "#d62728"},
		{"name contains key", "Department of Veterans Affairs", "#8c564b"},
		{"key contains name", "Homeland", "#e377c2"},
		{"longest key wins", "Department of Health and Human Services (Medicare)", "#2ca02c"},
		{"unknown", "Bureau of Nothing", DefaultColor},
		{"empty", "", DefaultColor},
		{"whitespace", "   ", DefaultColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColorFor(tt.input); got != tt.want {
				t.Errorf("ColorFor(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestColorForDeterministic(t *testing.T) {
	for _, name := range []string{"Defense", "Unknown Agency", "nasa", ""} {
		if ColorFor(name) != ColorFor(name) {
			t.Errorf("ColorFor(%q) not deterministic", name)
		}
		if HoverColorFor(name) != HoverColorFor(name) {
			t.Errorf("HoverColorFor(%q) not deterministic", name)
		}
	}
}

func TestDerivedShades(t *testing.T) {
	for _, name := range []string{"Defense", "Education", "nothing matches", "NASA"} {
		base := ColorFor(name)
		hover := HoverColorFor(name)
		header := HeaderColorFor(name)

		for label, c := range map[string]Color{"hover": hover, "header": header} {
			if !hexColorRegex.MatchString(string(c)) {
				t.Errorf("%s shade of %q = %q is not a hex color", label, name, c)
			}
			if c == base {
				t.Errorf("%s shade of %q equals base color %q", label, name, base)
			}
		}
		if Lightness(header) >= Lightness(base) {
			t.Errorf("header shade of %q (%s) should be darker than %s", name, header, base)
		}
	}
}

func TestShiftMirrorsAtBounds(t *testing.T) {
	white := shift("#ffffff", 0.2)
	if white == "#ffffff" {
		t.Error("lightening white should mirror to a darker shade")
	}
	black := shift("#000000", -0.2)
	if black == "#000000" {
		t.Error("darkening black should mirror to a lighter shade")
	}
	if got := shift("not-a-color", 0.1); got != "not-a-color" {
		t.Errorf("shift(invalid) = %q, want input unchanged", got)
	}
}

func TestResolverOptions(t *testing.T) {
	r := New(
		WithDefault("#000000"),
		WithColors(map[string]string{
			"Defense": "#111111",
			"Parks":   "#222222",
		}),
	)

	if got := r.ColorFor("defense"); got != "#111111" {
		t.Errorf("override ColorFor(defense) = %q", got)
	}
	if got := r.ColorFor("National Parks Service"); got != "#222222" {
		t.Errorf("added ColorFor(parks) = %q", got)
	}
	if got := r.ColorFor("???"); got != "#000000" {
		t.Errorf("custom default = %q", got)
	}
	// The package table is unaffected.
	if got := ColorFor("defense"); got != "#d62728" {
		t.Errorf("package ColorFor(defense) = %q after override", got)
	}
}

func TestNilAndZeroResolver(t *testing.T) {
	var nilR *Resolver
	if got := nilR.ColorFor("defense"); got != DefaultColor {
		t.Errorf("nil resolver ColorFor = %q", got)
	}
	var zero Resolver
	if got := zero.ColorFor("defense"); got != DefaultColor {
		t.Errorf("zero resolver ColorFor = %q", got)
	}
}

func TestTextColorOn(t *testing.T) {
	if TextColorOn("#ffffff") != "#1a1a1a" {
		t.Error("text on white should be dark")
	}
	if TextColorOn("#000000") != "#ffffff" {
		t.Error("text on black should be white")
	}
}
