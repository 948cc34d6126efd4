package json

import (
	"testing"

	"github.com/remotesyssupport/stemcell/document"
)

func TestDecoder_Format(t *testing.T) {
	if got := New().Format(); got != document.FormatJSON {
		t.Errorf("Format() = %v, want %v", got, document.FormatJSON)
	}
}

func TestDecoder_Decode(t *testing.T) {
	t.Run("nested object", func(t *testing.T) {
		out, err := New().Decode([]byte(`{"production": {"instance_type": "c1.xlarge"}}`))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}

		prod, ok := out["production"].(map[string]any)
		if !ok {
			t.Fatalf("production = %T, want map", out["production"])
		}
		if prod["instance_type"] != "c1.xlarge" {
			t.Errorf("instance_type = %v, want %q", prod["instance_type"], "c1.xlarge")
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

	t.Run("null document", func(t *testing.T) {
		out, err := New().Decode([]byte("null"))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if out == nil || len(out) != 0 {
			t.Errorf("Decode() = %v, want empty non-nil map", out)
		}
	})

	t.Run("malformed input", func(t *testing.T) {
		if _, err := New().Decode([]byte("{ not json")); err == nil {
			t.Fatal("Decode() error = nil, want parse error")
		}
	})
}
