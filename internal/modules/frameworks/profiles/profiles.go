// Package profiles binds a document vocabulary to a sanitisation rule set. Profiles
// ship embedded in profiles.yaml and can be replaced at runtime through
// FRAMEWORK_IMPORT_PROFILES_YAML.
package profiles

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/forest"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/source"
	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

const profilesEnv = "FRAMEWORK_IMPORT_PROFILES_YAML"

//go:embed profiles.yaml
var profilesFS embed.FS

type Profile struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Vocabulary  source.Vocabulary `yaml:"vocabulary" json:"vocabulary"`
	Rules       forest.Rules      `yaml:"rules" json:"rules"`
}

func (p Profile) Adapter() source.Adapter {
	return source.NewXMLAdapter(p.Vocabulary)
}

type yamlProfilesSpec struct {
	Version  int       `yaml:"version"`
	Default  string    `yaml:"default"`
	Profiles []Profile `yaml:"profiles"`
}

type Registry struct {
	def    string
	byName map[string]Profile
}

// used when the YAML is missing or invalid
func fallbackRegistry() *Registry {
	legacy := forest.DefaultRules()
	legacy.MaxNameLength = 50
	asnLegacy := source.ASN
	asnLegacy.Name = "asn_legacy"
	return newRegistry("asn", []Profile{
		{Name: "asn", Vocabulary: source.ASN, Rules: forest.DefaultRules()},
		{Name: "asn_legacy", Vocabulary: asnLegacy, Rules: legacy},
		{Name: "skos", Vocabulary: source.SKOS, Rules: forest.DefaultRules()},
	})
}

func newRegistry(def string, list []Profile) *Registry {
	r := &Registry{def: def, byName: make(map[string]Profile, len(list))}
	for _, p := range list {
		r.byName[p.Name] = p
	}
	return r
}

var (
	registryOnce  sync.Once
	registryCache *Registry
	registryErr   error
)

// Default returns the process-wide registry, loading it once.
func Default(log *logger.Logger) *Registry {
	registryOnce.Do(func() {
		registryCache, registryErr = load()
	})
	if registryErr != nil {
		if log != nil {
			log.Warn("framework profiles: spec load failed; using fallback", "error", registryErr)
		}
		return fallbackRegistry()
	}
	return registryCache
}

func load() (*Registry, error) {
	data, err := readProfilesSpec()
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func readProfilesSpec() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(profilesEnv)); path != "" {
		return os.ReadFile(path)
	}
	return profilesFS.ReadFile("profiles.yaml")
}

// Parse validates a profiles document and builds a registry from it.
func Parse(data []byte) (*Registry, error) {
	var spec yamlProfilesSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	if len(spec.Profiles) == 0 {
		return nil, errors.New("no profiles defined")
	}

	list := make([]Profile, 0, len(spec.Profiles))
	seen := map[string]bool{}
	for _, p := range spec.Profiles {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, errors.New("profile name is required")
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate profile name: %s", p.Name)
		}
		seen[p.Name] = true

		vocab, ok := p.Vocabulary.Normalize()
		if !ok {
			return nil, fmt.Errorf("profile %s: record_element is required", p.Name)
		}
		if vocab.Name == "" {
			vocab.Name = p.Name
		}
		p.Vocabulary = vocab
		if p.Rules.MaxNameLength < 0 || p.Rules.ShortIdentifierLength < 0 {
			return nil, fmt.Errorf("profile %s: negative length", p.Name)
		}
		if p.Rules.MaxNameLength > 0 && p.Rules.MaxNameLength < forest.MinNameLength {
			return nil, fmt.Errorf("profile %s: max_name_length must be at least %d", p.Name, forest.MinNameLength)
		}
		list = append(list, p)
	}

	def := strings.TrimSpace(spec.Default)
	if def == "" {
		def = list[0].Name
	}
	if !seen[def] {
		return nil, fmt.Errorf("default profile %s is not defined", def)
	}
	return newRegistry(def, list), nil
}

// Get resolves a profile by name; an empty name selects the default.
func (r *Registry) Get(name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = r.def
	}
	p, ok := r.byName[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: unknown import profile %q (known: %s)",
			pkgerrors.ErrInvalidArgument, name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

func (r *Registry) DefaultName() string { return r.def }

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
