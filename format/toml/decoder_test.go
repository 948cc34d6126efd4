package toml

import (
	"testing"

	"github.com/remotesyssupport/stemcell/document"
)

func TestDecoder_Format(t *testing.T) {
	if got := New().Format(); got != document.FormatTOML {
		t.Errorf("Format() = %v, want %v", got, document.FormatTOML)
	}
}

func TestDecoder_Decode(t *testing.T) {
	t.Run("tables become nested maps", func(t *testing.T) {
		data := []byte("[production]\nbacking_store = \"ebs\"\ncount = 3\n")

		out, err := New().Decode(data)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}

		prod, ok := out["production"].(map[string]any)
		if !ok {
			t.Fatalf("production = %T, want map", out["production"])
		}
		if prod["backing_store"] != "ebs" {
			t.Errorf("backing_store = %v, want %q", prod["backing_store"], "ebs")
		}
		if prod["count"] != int64(3) {
			t.Errorf("count = %v (%T), want int64(3)", prod["count"], prod["count"])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		out, err := New().Decode(nil)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if out == nil || len(out) != 0 {
			t.Errorf("Decode(nil) = %v, want empty non-nil map", out)
		}
	})

	t.Run("malformed input", func(t *testing.T) {
		if _, err := New().Decode([]byte("= broken")); err == nil {
			t.Fatal("Decode() error = nil, want parse error")
		}
	})
}
