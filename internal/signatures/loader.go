package signatures

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/IvanShishkin/docsentry/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed rules/default.yaml
var defaultRules []byte

// Loader loads the extractor vocabulary from YAML files
type Loader struct {
	rulesPath string
}

// NewLoader creates a new rule loader. An empty path loads only the
// embedded defaults.
func NewLoader(rulesPath string) *Loader {
	return &Loader{
		rulesPath: rulesPath,
	}
}

// RuleFile represents a YAML rule file
type RuleFile struct {
	SuspiciousTokens []string            `yaml:"suspicious_tokens"`
	Structural       []*models.MarkerSet `yaml:"structural"`
}

// LoadDefault returns the embedded rule set
func LoadDefault() (*models.RuleSet, error) {
	rs := models.NewRuleSet()
	if err := apply(defaultRules, rs); err != nil {
		return nil, fmt.Errorf("failed to load embedded rules: %w", err)
	}
	return rs, nil
}

// Load starts from the embedded defaults and applies every YAML file found
// at the rules path. Tokens from a file replace the token list, marker sets
// replace the set of the same family.
func (l *Loader) Load() (*models.RuleSet, error) {
	rs, err := LoadDefault()
	if err != nil {
		return nil, err
	}

	if l.rulesPath == "" {
		return rs, nil
	}

	// Check if rules path exists
	if _, err := os.Stat(l.rulesPath); os.IsNotExist(err) {
		return rs, nil
	}

	err = filepath.Walk(l.rulesPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-YAML files
		if info.IsDir() || (filepath.Ext(path) != ".yaml" && filepath.Ext(path) != ".yml") {
			return nil
		}

		if err := l.loadFile(path, rs); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}

		return nil
	})

	return rs, err
}

// loadFile loads rules from a single YAML file
func (l *Loader) loadFile(path string, rs *models.RuleSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return apply(data, rs)
}

func apply(data []byte, rs *models.RuleSet) error {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if len(file.SuspiciousTokens) > 0 {
		rs.SuspiciousTokens = file.SuspiciousTokens
	}

	for _, ms := range file.Structural {
		if ms.Family == "" || len(ms.Markers) == 0 {
			return fmt.Errorf("marker set %q needs a family and at least one marker", ms.FindingID)
		}
		if err := rs.AddMarkers(ms); err != nil {
			return fmt.Errorf("failed to add markers for %s: %w", ms.Family, err)
		}
	}

	return nil
}
