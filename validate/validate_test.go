package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/memorymatch/game/config"
)

const validTier = `{
	"name": "Test Tier",
	"description": "Test configuration",
	"pair_count": 6,
	"face_key_pool_size": 12,
	"columns": 4,
	"mismatch_delay_ms": 800,
	"face_asset_pattern": "/images/card_%02d.png",
	"messages": {
		"welcome": "Welcome!",
		"match": "Pair!",
		"mismatch": "Nope",
		"victory": "Done in %d moves"
	}
}`

func writeTier(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func hasMessage(messages []string, substr string) bool {
	for _, m := range messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestValidateFile_ValidTier(t *testing.T) {
	path := writeTier(t, t.TempDir(), "test.json", validTier)

	result := ValidateFile(path)
	if !result.Valid {
		t.Fatalf("Expected valid tier, got errors: %v", result.Errors)
	}
	if result.File != "test.json" {
		t.Errorf("Expected file name test.json, got %s", result.File)
	}
	if !hasMessage(result.Info, "12 cards on a 4x3 board") {
		t.Errorf("Expected board summary, got %v", result.Info)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
}

func TestValidateFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		wantErr string
	}{
		{"missing name", [2]string{`"name": "Test Tier"`, `"name": ""`}, "name is required"},
		{"pool too small", [2]string{`"face_key_pool_size": 12`, `"face_key_pool_size": 3`}, "face_key_pool_size"},
		{"zero pairs", [2]string{`"pair_count": 6`, `"pair_count": 0`}, "pair_count"},
		{"too many columns", [2]string{`"columns": 4`, `"columns": 13`}, "columns"},
		{"negative delay", [2]string{`"mismatch_delay_ms": 800`, `"mismatch_delay_ms": -1`}, "mismatch_delay_ms"},
		{"bad victory verb", [2]string{`"Done in %d moves"`, `"Done in %s moves"`}, "messages.victory"},
		{"malformed", [2]string{`"columns": 4,`, `"columns": 4,,`}, "Invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Replace(validTier, tt.replace[0], tt.replace[1], 1)
			path := writeTier(t, t.TempDir(), "tier.json", content)

			result := ValidateFile(path)
			if result.Valid {
				t.Fatal("Expected invalid tier")
			}
			if !hasMessage(result.Errors, tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, result.Errors)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		result := ValidateFile(filepath.Join(t.TempDir(), "absent.json"))
		if result.Valid || !hasMessage(result.Errors, "Failed to read file") {
			t.Errorf("Expected read error, got %+v", result)
		}
	})
}

func TestValidateFile_Warnings(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		replace  [2]string
		wantWarn string
	}{
		{"unknown field", "tier.json", [2]string{`"columns": 4,`, `"columns": 4, "colums": 4,`}, "unknown field"},
		{"partial last row", "tier.json", [2]string{`"columns": 4`, `"columns": 5`}, "last row holds 2 of 5"},
		{"empty match message", "tier.json", [2]string{`"match": "Pair!"`, `"match": ""`}, "messages.match"},
		{"large pool", "tier.json", [2]string{`"face_key_pool_size": 12`, `"face_key_pool_size": 40`}, "bundled card images"},
		{"auto resolve without delay", "tier.json", [2]string{`"mismatch_delay_ms": 800`, `"mismatch_delay_ms": 0, "auto_resolve_mismatch": true`}, "zero delay"},
		{"bad file name", "My Tier.json", [2]string{"", ""}, "not a lowercase config id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := validTier
			if tt.replace[0] != "" {
				content = strings.Replace(validTier, tt.replace[0], tt.replace[1], 1)
			}
			path := writeTier(t, t.TempDir(), tt.file, content)

			result := ValidateFile(path)
			if !result.Valid {
				t.Fatalf("Expected warnings only, got errors: %v", result.Errors)
			}
			if !hasMessage(result.Warnings, tt.wantWarn) {
				t.Errorf("Expected warning containing %q, got %v", tt.wantWarn, result.Warnings)
			}
		})
	}
}

func TestValidateDir(t *testing.T) {
	t.Run("built-in tiers", func(t *testing.T) {
		dir := t.TempDir()
		if err := config.WriteBuiltinConfigs(dir); err != nil {
			t.Fatal(err)
		}

		results, err := ValidateDir(dir)
		if err != nil {
			t.Fatalf("ValidateDir failed: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("Expected 3 results, got %d", len(results))
		}
		// sorted by file name
		if results[0].File != "easy.json" || results[1].File != "hard.json" || results[2].File != "medium.json" {
			t.Errorf("Unexpected order: %s, %s, %s", results[0].File, results[1].File, results[2].File)
		}
		for _, r := range results {
			if !r.Valid || len(r.Warnings) != 0 {
				t.Errorf("%s: expected clean result, got %+v", r.File, r)
			}
		}

		var buf bytes.Buffer
		if invalid := Report(&buf, results); invalid != 0 {
			t.Errorf("Expected 0 invalid, got %d", invalid)
		}
		if !strings.Contains(buf.String(), "All configurations are valid") {
			t.Errorf("Unexpected report:\n%s", buf.String())
		}
	})

	t.Run("mixed", func(t *testing.T) {
		dir := t.TempDir()
		writeTier(t, dir, "good.json", validTier)
		writeTier(t, dir, "bad.json", "{")
		writeTier(t, dir, "notes.txt", "ignored")

		results, err := ValidateDir(dir)
		if err != nil {
			t.Fatalf("ValidateDir failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(results))
		}

		var buf bytes.Buffer
		if invalid := Report(&buf, results); invalid != 1 {
			t.Errorf("Expected 1 invalid, got %d", invalid)
		}
		if !strings.Contains(buf.String(), "1 of 2 configurations have errors") {
			t.Errorf("Unexpected report:\n%s", buf.String())
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		if _, err := ValidateDir(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("Expected error for missing directory")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		results, err := ValidateDir(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		Report(&buf, results)
		if !strings.Contains(buf.String(), "No configuration files found") {
			t.Errorf("Unexpected report:\n%s", buf.String())
		}
	})
}
