package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/vervegrand/sentos-sync/internal/domain"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		isNil bool
	}{
		{"comma decimal", "249,90", 249.90, false},
		{"thousands dot with comma decimal", "1.249,90", 1249.90, false},
		{"plain dot decimal", "249.90", 249.90, false},
		{"integer", "100", 100, false},
		{"currency noise stripped", "249,90 TL", 249.90, false},
		{"rounds to two decimals", "10,999", 11.00, false},
		{"zero is a legal price", "0,00", 0, false},
		{"empty", "", 0, true},
		{"letters only", "abc", 0, true},
		{"whitespace", "   ", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("ParsePrice(%q) = %v, want nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParsePrice(%q) = nil, want %v", tt.input, tt.want)
			}
			if *got != tt.want {
				t.Errorf("ParsePrice(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestParseStock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"plain number", "42", 42},
		{"negative clamps to zero", "-3", 0},
		{"empty yields zero", "", 0},
		{"garbage yields zero", "n/a", 0},
		{"whitespace tolerated", " 7 ", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseStock(tt.input); got != tt.want {
				t.Errorf("ParseStock(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseWeight(t *testing.T) {
	if got := ParseWeight("0,35"); got != 0.35 {
		t.Errorf("ParseWeight(\"0,35\") = %v, want 0.35", got)
	}
	if got := ParseWeight("bad"); got != 0 {
		t.Errorf("ParseWeight(\"bad\") = %v, want 0", got)
	}
}

func TestCleanDescription(t *testing.T) {
	t.Run("strips tags and collapses whitespace", func(t *testing.T) {
		got := CleanDescription("<p>Şık   midi\n\nelbise.</p><br/>")
		if got != "Şık midi elbise." {
			t.Errorf("CleanDescription = %q", got)
		}
	})

	t.Run("caps long text with ellipsis", func(t *testing.T) {
		got := CleanDescription(strings.Repeat("a", maxDescriptionLength+100))
		if len(got) != maxDescriptionLength {
			t.Errorf("len = %d, want %d", len(got), maxDescriptionLength)
		}
		if !strings.HasSuffix(got, "...") {
			t.Error("capped description should end with ellipsis")
		}
	})

	t.Run("cap lands on a rune boundary in Turkish text", func(t *testing.T) {
		got := CleanDescription(strings.Repeat("a", maxDescriptionLength-6) + strings.Repeat("ş", 10))
		if !utf8.ValidString(got) {
			t.Error("truncated description is not valid UTF-8")
		}
		if n := utf8.RuneCountInString(got); n != maxDescriptionLength {
			t.Errorf("rune count = %d, want %d", n, maxDescriptionLength)
		}
		if !strings.HasSuffix(got, "...") {
			t.Error("capped description should end with ellipsis")
		}
	})

	t.Run("cap counts runes so multi-byte text under the limit is untouched", func(t *testing.T) {
		input := strings.Repeat("a", maxDescriptionLength-3) + "şşş" // over the cap in bytes, not in runes
		if got := CleanDescription(input); got != input {
			t.Errorf("description was altered: len %d, want %d", len(got), len(input))
		}
	})
}

func TestTruncateTitle(t *testing.T) {
	long := strings.Repeat("x", maxTitleLength+20)
	if got := TruncateTitle(long); len(got) != maxTitleLength {
		t.Errorf("len = %d, want %d", len(got), maxTitleLength)
	}
	if got := TruncateTitle("  Midi Elbise  "); got != "Midi Elbise" {
		t.Errorf("TruncateTitle trimmed = %q", got)
	}

	t.Run("caps on rune boundaries", func(t *testing.T) {
		got := TruncateTitle(strings.Repeat("ş", maxTitleLength+5))
		if !utf8.ValidString(got) {
			t.Error("truncated title is not valid UTF-8")
		}
		if n := utf8.RuneCountInString(got); n != maxTitleLength {
			t.Errorf("rune count = %d, want %d", n, maxTitleLength)
		}
	})
}

func TestExtractMainCategory(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"first segment", "Giyim > Elbise > Midi", "Giyim"},
		{"skips empty leading segment", " > Elbise", "Elbise"},
		{"empty path falls back", "", defaultCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractMainCategory(tt.input); got != tt.want {
				t.Errorf("ExtractMainCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractTags(t *testing.T) {
	t.Run("segments plus brand, deduplicated in order", func(t *testing.T) {
		got := ExtractTags("Giyim > Elbise > Giyim", "Vervegrand")
		want := []string{"Giyim", "Elbise", "Vervegrand"}
		if len(got) != len(want) {
			t.Fatalf("tags = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("tags[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("brand already in path is not repeated", func(t *testing.T) {
		got := ExtractTags("Vervegrand", "Vervegrand")
		if len(got) != 1 {
			t.Errorf("tags = %v, want single entry", got)
		}
	})
}

func TestBuildSku(t *testing.T) {
	if got := BuildSku("VG-1001", "55"); got != "VG-1001" {
		t.Errorf("BuildSku = %q, want stock code", got)
	}
	if got := BuildSku("  ", "55"); got != "FEED_55" {
		t.Errorf("BuildSku = %q, want synthesized FEED_55", got)
	}
}

func TestNormalize(t *testing.T) {
	rec := &domain.FeedRecord{
		VendorID:     "55",
		StockCode:    "",
		Title:        " Midi Elbise ",
		Description:  "<p>Şık elbise</p>",
		RawPrice:     "1.249,90",
		RawStock:     "-5",
		CategoryPath: "Giyim > Elbise",
		Brand:        "Vervegrand",
	}

	got := Normalize(rec)

	if got.SKU != "FEED_55" {
		t.Errorf("SKU = %q, want FEED_55", got.SKU)
	}
	if got.Title != "Midi Elbise" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Price == nil || *got.Price != 1249.90 {
		t.Errorf("Price = %v, want 1249.90", got.Price)
	}
	if got.Stock != 0 {
		t.Errorf("Stock = %d, want 0 (negative clamped)", got.Stock)
	}
	if got.MainCategory != "Giyim" {
		t.Errorf("MainCategory = %q, want Giyim", got.MainCategory)
	}
}
