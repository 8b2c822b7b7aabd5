package category

import (
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

// Implicit labels produced next to the configured groups.
const (
	LabelTotal      = "total"
	LabelBranded    = "branded"
	LabelNonBranded = "non_branded"
)

// Rule is a named group of match terms. Brand rules decide whether a text
// counts as branded; topic rules are tracked but do not.
type Rule struct {
	Name  string
	Terms []string
	Brand bool
}

// Config is the full category configuration for one client.
type Config struct {
	Client            string
	Groups            []Rule
	ImportantKeywords []string
	Subdomains        []string
	Dimensions        []models.Dimension
}

// NewConfig validates and returns a programmatic configuration. Groups keep
// the order they were given in.
func NewConfig(client string, groups []Rule, important, subdomains []string, dims ...models.Dimension) (Config, error) {
	cfg := Config{
		Client:            client,
		Groups:            groups,
		ImportantKeywords: important,
		Subdomains:        subdomains,
		Dimensions:        dims,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces unique, non-reserved group names and known dimensions.
// An empty dimension list defaults to query only.
func (c *Config) Validate() error {
	seen := map[string]struct{}{}
	for _, g := range c.Groups {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return apperr.Configuration("category group with empty name")
		}
		switch name {
		case LabelTotal, LabelBranded, LabelNonBranded:
			return apperr.Configuration("category group name %q is reserved", name)
		}
		if _, dup := seen[name]; dup {
			return apperr.Configuration("duplicate category group %q", name)
		}
		seen[name] = struct{}{}
	}
	if len(c.Dimensions) == 0 {
		c.Dimensions = []models.Dimension{models.DimensionQuery}
	}
	dims := map[models.Dimension]struct{}{}
	for _, d := range c.Dimensions {
		if !d.Valid() {
			return apperr.Configuration("invalid dimension %q, use query or page", d)
		}
		if _, dup := dims[d]; dup {
			return apperr.Configuration("dimension %q listed twice", d)
		}
		dims[d] = struct{}{}
	}
	return nil
}

// groupList decodes a YAML mapping of name -> terms keeping document order.
type groupList []Rule

func (g *groupList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return eris.Errorf("line %d: expected a mapping of group name to terms", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var terms []string
		if err := node.Content[i+1].Decode(&terms); err != nil {
			return eris.Wrapf(err, "group %q", node.Content[i].Value)
		}
		*g = append(*g, Rule{Name: node.Content[i].Value, Terms: terms})
	}
	return nil
}

type fileConfig struct {
	Client            string    `yaml:"client"`
	Brands            groupList `yaml:"brands"`
	Topics            groupList `yaml:"topics"`
	ImportantKeywords []string  `yaml:"important_keywords"`
	Subdomains        []string  `yaml:"subdomains"`
	Dimensions        []string  `yaml:"dimensions"`
}

func (f fileConfig) build() (Config, error) {
	groups := make([]Rule, 0, len(f.Brands)+len(f.Topics))
	for _, r := range f.Brands {
		r.Brand = true
		groups = append(groups, r)
	}
	groups = append(groups, f.Topics...)
	return NewConfig(f.Client, groups, f.ImportantKeywords, f.Subdomains, toDimensions(f.Dimensions)...)
}

// Parse reads a YAML client configuration.
func Parse(data []byte) (Config, error) {
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, eris.Wrap(apperr.Configuration("parse category config: %v", err), "category: parse")
	}
	return f.build()
}

// LoadFile reads a YAML client configuration from disk.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "category: read config %s", path)
	}
	return Parse(data)
}

type mapConfig struct {
	Client            string              `mapstructure:"client"`
	Brands            map[string][]string `mapstructure:"brands"`
	Topics            map[string][]string `mapstructure:"topics"`
	ImportantKeywords []string            `mapstructure:"important_keywords"`
	Subdomains        []string            `mapstructure:"subdomains"`
	Dimensions        []string            `mapstructure:"dimensions"`
}

// FromMap builds a configuration from a nested key/value structure, such as
// a viper sub-tree. Maps carry no order, so groups are sorted by name within
// brands and topics.
func FromMap(m map[string]any) (Config, error) {
	var raw mapConfig
	if err := mapstructure.Decode(m, &raw); err != nil {
		return Config{}, apperr.Configuration("decode category config: %v", err)
	}
	f := fileConfig{
		Client:            raw.Client,
		Brands:            sortedGroups(raw.Brands),
		Topics:            sortedGroups(raw.Topics),
		ImportantKeywords: raw.ImportantKeywords,
		Subdomains:        raw.Subdomains,
		Dimensions:        raw.Dimensions,
	}
	return f.build()
}

func sortedGroups(m map[string][]string) groupList {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make(groupList, 0, len(names))
	for _, n := range names {
		out = append(out, Rule{Name: n, Terms: m[n]})
	}
	return out
}

func toDimensions(in []string) []models.Dimension {
	out := make([]models.Dimension, 0, len(in))
	for _, s := range in {
		out = append(out, models.Dimension(strings.ToLower(strings.TrimSpace(s))))
	}
	return out
}
