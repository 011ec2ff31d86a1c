// Package validate checks difficulty tier JSON files before the server loads them.
// Beyond the rules the engine enforces it reports:
//   - unknown JSON fields (usually typos)
//   - file names that are not usable config ids
//   - boards whose last row is only partly filled
//   - missing match/mismatch messages
//   - tiers that need more distinct faces than the default image set holds
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Errors make the tier unusable; Warnings and Info are advisory.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

// ValidateFile loads and validates a single tier file
func ValidateFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		if !strings.HasPrefix(err.Error(), "json: unknown field") {
			result.fail("Invalid JSON: %v", err)
			return result
		}
		result.Warnings = append(result.Warnings, strings.TrimPrefix(err.Error(), "json: "))
		if err := json.Unmarshal(data, &config); err != nil {
			result.fail("Invalid JSON: %v", err)
			return result
		}
	}

	checkConfig(&result, &config)
	checkConfigID(&result, filePath)
	return result
}

func checkConfig(result *ValidationResult, config *engine.GameConfig) {
	if err := engine.ValidateGameConfig(config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return
	}

	cards := config.PairCount * 2
	rows := (cards + config.Columns - 1) / config.Columns
	result.Info = append(result.Info,
		fmt.Sprintf("✓ %d pairs, %d cards on a %dx%d board", config.PairCount, cards, config.Columns, rows),
		fmt.Sprintf("✓ Face pool of %d, mismatch delay %dms", config.FaceKeyPoolSize, config.MismatchDelayMs))

	if cards%config.Columns != 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("last row holds %d of %d cards", cards%config.Columns, config.Columns))
	}
	if config.FaceAssetPattern != "" && config.FaceKeyPoolSize > engine.DefaultFaceKeyPool {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("face pool %d exceeds the %d bundled card images", config.FaceKeyPoolSize, engine.DefaultFaceKeyPool))
	}
	if config.Messages.Match == "" {
		result.Warnings = append(result.Warnings, "messages.match is empty")
	}
	if config.Messages.Mismatch == "" {
		result.Warnings = append(result.Warnings, "messages.mismatch is empty")
	}
	if config.AutoResolveMismatch && config.MismatchDelayMs == 0 {
		result.Warnings = append(result.Warnings, "auto_resolve_mismatch with a zero delay hides the second card immediately")
	}
}

// checkConfigID warns when the file name cannot be used as a config_id
func checkConfigID(result *ValidationResult, filePath string) {
	id := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("file name %q is not a lowercase config id", id))
			return
		}
	}
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// ValidateDir validates every *.json file in dir, sorted by name
func ValidateDir(dir string) ([]ValidationResult, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("finding config files: %w", err)
	}
	sort.Strings(files)

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, ValidateFile(file))
	}
	return results, nil
}

// Report prints a concise report and returns the number of invalid files
func Report(w io.Writer, results []ValidationResult) int {
	invalid := 0
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			invalid++
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No configuration files found")
	case invalid == 0:
		fmt.Fprintln(w, "✅ All configurations are valid!")
	default:
		fmt.Fprintf(w, "❌ %d of %d configurations have errors\n", invalid, len(results))
	}
	return invalid
}
