package registry

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/api-acceptor/scenarios"
)

// ScenarioConfig selects one catalog scenario and optionally overrides how it is reported
type ScenarioConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Skip        bool     `yaml:"skip,omitempty"`
}

// SuiteConfig is the YAML scenario selection file
type SuiteConfig struct {
	Title     string           `yaml:"title,omitempty"`
	Scenarios []ScenarioConfig `yaml:"scenarios"`
}

// Registry resolves which scenarios run, in which order
type Registry struct {
	config    Config
	title     string
	scenarios []scenarios.Scenario
	mu        sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log log.Logger
	// ScenarioConfigFile is optional; without it the whole catalog runs
	ScenarioConfigFile string
	// Tags keeps only scenarios carrying at least one of them
	Tags []string
}

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{
		config: cfg,
	}

	if err := r.loadScenarios(); err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}

	cfg.Log.Debug("Registry loaded", "len(scenarios)", len(r.scenarios), "tags", cfg.Tags)

	return r, nil
}

func (r *Registry) loadScenarios() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	selected := scenarios.Catalog()
	if r.config.ScenarioConfigFile != "" {
		suite, err := loadConfig(r.config.ScenarioConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		selected, err = resolve(suite)
		if err != nil {
			return err
		}
		r.title = suite.Title
	}

	r.scenarios = filterByTags(selected, r.config.Tags)
	return nil
}

// resolve maps the configured names onto catalog scenarios in file order
func resolve(suite *SuiteConfig) ([]scenarios.Scenario, error) {
	seen := make(map[string]bool)
	var out []scenarios.Scenario
	for _, sc := range suite.Scenarios {
		if sc.Name == "" {
			return nil, fmt.Errorf("scenario entry without a name")
		}
		if seen[sc.Name] {
			return nil, fmt.Errorf("scenario %s listed more than once", sc.Name)
		}
		seen[sc.Name] = true

		scenario, ok := scenarios.Lookup(sc.Name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %s (known: %s)", sc.Name, strings.Join(scenarios.Names(), ", "))
		}
		if sc.Skip {
			continue
		}
		if sc.Description != "" {
			scenario.Description = sc.Description
		}
		if len(sc.Tags) > 0 {
			scenario.Tags = normalizeTags(sc.Tags)
		}
		out = append(out, scenario)
	}
	return out, nil
}

func filterByTags(all []scenarios.Scenario, tags []string) []scenarios.Scenario {
	if len(tags) == 0 {
		return all
	}
	var out []scenarios.Scenario
	for _, sc := range all {
		for _, tag := range tags {
			if sc.HasTag(tag) {
				out = append(out, sc)
				break
			}
		}
	}
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "@") {
			t = "@" + t
		}
		out = append(out, t)
	}
	return out
}

// GetScenarios returns the selected scenarios in run order
func (r *Registry) GetScenarios() []scenarios.Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scenarios
}

// Title returns the report title configured in the file, if any
func (r *Registry) Title() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.title
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

// loadConfig loads a scenario config from a file
func loadConfig(path string) (*SuiteConfig, error) {
	log.Debug("Reading scenario config file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg SuiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}
