package persona

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"ragmail/internal/domain"
)

// Load reads a persona file. ".toml" files are decoded as TOML; anything else as YAML,
// which also accepts the JSON persona format.
func Load(path string) (domain.Persona, error) {
	var p domain.Persona
	if strings.TrimSpace(path) == "" {
		return p, fmt.Errorf("%w: empty path", domain.ErrPersonaNotFound)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, fmt.Errorf("%w: %s", domain.ErrPersonaNotFound, path)
		}
		return p, fmt.Errorf("%w: read persona %s: %v", domain.ErrConfiguration, path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return domain.Persona{}, fmt.Errorf("%w: parse persona %s: %v", domain.ErrConfiguration, path, err)
	}
	if err := Validate(p); err != nil {
		return domain.Persona{}, fmt.Errorf("%w: persona %s: %v", domain.ErrConfiguration, path, err)
	}
	return p, nil
}

// Validate requires a tone and a signoff; phrases are optional.
func Validate(p domain.Persona) error {
	var missing []string
	if strings.TrimSpace(p.Tone) == "" {
		missing = append(missing, "tone")
	}
	if strings.TrimSpace(p.Signoff) == "" {
		missing = append(missing, "signoff")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}
