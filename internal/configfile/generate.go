package configfile

import (
	"os"
	"path/filepath"
)

// Generate reads templatePath, substitutes vars, and writes the result to
// outDir (or the template's own directory when outDir is empty), preserving
// the template's base filename.
func Generate(templatePath, outDir string, vars Vars) (string, error) {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return "", err
	}
	rendered := Substitute(string(raw), vars)

	dir := outDir
	if dir == "" {
		dir = filepath.Dir(templatePath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	outPath := filepath.Join(dir, filepath.Base(templatePath))
	if err := os.WriteFile(outPath, []byte(rendered), 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}
