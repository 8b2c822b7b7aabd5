package category

import (
	"embed"
	"path"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// PresetNames lists the bundled client configurations.
func PresetNames() []string {
	entries, err := presetFS.ReadDir("presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Preset loads a bundled client configuration by name.
func Preset(name string) (Config, error) {
	data, err := presetFS.ReadFile(path.Join("presets", strings.ToLower(name)+".yaml"))
	if err != nil {
		return Config{}, apperr.Configuration("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, eris.Wrapf(err, "category: preset %s", name)
	}
	return cfg, nil
}
