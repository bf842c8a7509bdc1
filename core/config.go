package core

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"threatnav-go/threat"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable that overrides the config file.
const EnvPrefix = "THREATNAV_"

// ErrInvalidConfig is the cause of every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// GridConfig describes the spatial grid.
type GridConfig struct {
	XSize float64 `yaml:"x_size" json:"x_size"`
	YSize float64 `yaml:"y_size" json:"y_size"`
	XPts  int     `yaml:"x_pts" json:"x_pts"`
	YPts  int     `yaml:"y_pts" json:"y_pts"`
}

// WindowConfig is an accepted arrival interval at the goal.
type WindowConfig struct {
	Start float64 `yaml:"start" json:"start"`
	End   float64 `yaml:"end" json:"end"`
}

// TimeConfig enables and shapes the time-expanded search.
type TimeConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	TFinal  float64       `yaml:"t_final" json:"t_final"`
	TPts    int           `yaml:"t_pts" json:"t_pts"`
	Wait    bool          `yaml:"wait" json:"wait"`
	Window  *WindowConfig `yaml:"window,omitempty" json:"window,omitempty"`
}

// CostConfig holds the edge cost weights.
type CostConfig struct {
	Exposure float64 `yaml:"exposure" json:"exposure"`
	Move     float64 `yaml:"move" json:"move"`
	Wait     float64 `yaml:"wait" json:"wait"`
}

// PointConfig is a workspace location.
type PointConfig struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// GoalConfig is the goal location. TIdx selects the time layer of the goal;
// unset means the final layer.
type GoalConfig struct {
	X    float64 `yaml:"x" json:"x"`
	Y    float64 `yaml:"y" json:"y"`
	TIdx *int    `yaml:"t_idx,omitempty" json:"t_idx,omitempty"`
}

// RouteConfig holds the start and goal of a search.
type RouteConfig struct {
	Start PointConfig `yaml:"start" json:"start"`
	Goal  GoalConfig  `yaml:"goal" json:"goal"`
}

// RandomFieldConfig adds randomly generated threats to the field.
type RandomFieldConfig struct {
	Count          int   `yaml:"count"`
	FixedLocation  bool  `yaml:"fixed_location"`
	FixedShape     bool  `yaml:"fixed_shape"`
	FixedIntensity bool  `yaml:"fixed_intensity"`
	Seed           int64 `yaml:"seed"`
}

// FieldConfig describes the threat field.
type FieldConfig struct {
	Offset      float64                     `yaml:"offset"`
	Threats     []threat.GaussDynamicThreat `yaml:"threats,omitempty"`
	ThreatsFile string                      `yaml:"threats_file,omitempty"`
	Random      *RandomFieldConfig          `yaml:"random,omitempty"`
}

// SearchConfig tunes the search engine.
type SearchConfig struct {
	MaxExpansions int    `yaml:"max_expansions"`
	Heuristic     string `yaml:"heuristic"`
	CheckNegative bool   `yaml:"check_negative"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ExperimentConfig holds settings for repeated comparison runs.
type ExperimentConfig struct {
	Runs int `yaml:"runs"`
}

// Config corresponds to the structure of the YAML scenario file.
type Config struct {
	Grid       GridConfig       `yaml:"grid"`
	Time       TimeConfig       `yaml:"time"`
	Costs      CostConfig       `yaml:"costs"`
	Route      RouteConfig      `yaml:"route"`
	Field      FieldConfig      `yaml:"field"`
	Search     SearchConfig     `yaml:"search"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Experiment ExperimentConfig `yaml:"experiment"`
}

// DefaultConfig returns the scenario used when no file exists: a 10 by 10
// workspace with a time-varying random field.
func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{XSize: 10, YSize: 10, XPts: 11, YPts: 11},
		Time: TimeConfig{
			Enabled: true,
			TFinal:  30,
			TPts:    30,
			Wait:    true,
			Window:  &WindowConfig{Start: 0, End: 30},
		},
		Costs: CostConfig{
			Exposure: 1,
			Move:     1,
			Wait:     0.1,
		},
		Route: RouteConfig{
			Start: PointConfig{X: 0, Y: 0},
			Goal:  GoalConfig{X: 10, Y: 10},
		},
		Field: FieldConfig{
			Offset: 1,
			Random: &RandomFieldConfig{Seed: 1},
		},
		Search:     SearchConfig{Heuristic: "zero"},
		Server:     ServerConfig{Host: "127.0.0.1", Port: 8080},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
		Experiment: ExperimentConfig{Runs: 10},
	}
}

// ConfigManager handles loading and saving of the scenario configuration.
type ConfigManager struct {
	configPath string
	config     *Config
	lock       sync.Mutex
}

// NewConfigManager loads the scenario at path, writing the defaults there if
// it does not exist yet. Environment overrides are applied before validation.
func NewConfigManager(path string) (*ConfigManager, error) {
	cm := &ConfigManager{
		configPath: path,
	}

	exists, err := cm.LoadConfig()
	if err != nil {
		return nil, err
	}
	if !exists {
		cm.config = DefaultConfig()
		if err := cm.SaveConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to save default config")
		}
	}
	if err := cm.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cm.Validate(); err != nil {
		return nil, err
	}
	return cm, nil
}

// LoadConfig loads the configuration from the YAML file. Keys missing from
// the file keep their default values.
func (cm *ConfigManager) LoadConfig() (bool, error) {
	cm.lock.Lock()
	defer cm.lock.Unlock()

	file, err := os.ReadFile(cm.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to read config file")
	}

	// The field is taken from the file as a whole so that a scenario listing
	// its own threats does not also inherit the default random ones.
	config := DefaultConfig()
	config.Field = FieldConfig{Offset: config.Field.Offset}
	if err := yaml.Unmarshal(file, config); err != nil {
		return false, errors.Wrapf(err, "failed to decode YAML from %s", cm.configPath)
	}
	cm.config = config
	return true, nil
}

// SaveConfig saves the current configuration to the YAML file.
func (cm *ConfigManager) SaveConfig() error {
	cm.lock.Lock()
	defer cm.lock.Unlock()

	data, err := yaml.Marshal(cm.config)
	if err != nil {
		return errors.Wrap(err, "failed to encode config to YAML")
	}
	if err := os.WriteFile(cm.configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write to config file")
	}
	return nil
}

// GetConfig returns the entire configuration.
func (cm *ConfigManager) GetConfig() *Config {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	return cm.config
}

// SetConfig replaces the configuration.
func (cm *ConfigManager) SetConfig(config *Config) {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	cm.config = config
}

// ApplyEnv overrides settings from THREATNAV_* variables found through lookup.
func (cm *ConfigManager) ApplyEnv(lookup func(string) (string, bool)) error {
	cm.lock.Lock()
	defer cm.lock.Unlock()

	c := cm.config
	if v, ok := lookup(EnvPrefix + "SERVER_HOST"); ok {
		c.Server.Host = v
	}
	if v, ok := lookup(EnvPrefix + "SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%sSERVER_PORT", EnvPrefix)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
	if v, ok := lookup(EnvPrefix + "RUNS"); ok {
		runs, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%sRUNS", EnvPrefix)
		}
		c.Experiment.Runs = runs
	}
	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "%sSEED", EnvPrefix)
		}
		if c.Field.Random == nil {
			c.Field.Random = &RandomFieldConfig{}
		}
		c.Field.Random.Seed = seed
	}
	return nil
}

// Validate checks that the configuration describes a searchable scenario.
// Start and goal bounds are checked when the scenario is built.
func (cm *ConfigManager) Validate() error {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	return cm.config.Validate()
}

// Validate checks that the configuration describes a searchable scenario.
func (c *Config) Validate() error {
	if c.Grid.XPts < 2 || c.Grid.YPts < 2 {
		return errors.Wrapf(ErrInvalidConfig, "grid needs at least 2 points per axis, got %dx%d", c.Grid.XPts, c.Grid.YPts)
	}
	if c.Grid.XSize <= 0 || c.Grid.YSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "grid sizes must be positive, got %gx%g", c.Grid.XSize, c.Grid.YSize)
	}
	if c.Time.Enabled {
		if c.Time.TFinal <= 0 || c.Time.TPts < 1 {
			return errors.Wrapf(ErrInvalidConfig, "time needs t_final > 0 and t_pts >= 1, got %g and %d", c.Time.TFinal, c.Time.TPts)
		}
		if w := c.Time.Window; w != nil && w.Start > w.End {
			return errors.Wrapf(ErrInvalidConfig, "time window starts after it ends: [%g, %g]", w.Start, w.End)
		}
		if t := c.Route.Goal.TIdx; t != nil && (*t < 0 || *t >= c.Time.TPts) {
			return errors.Wrapf(ErrInvalidConfig, "goal t_idx %d outside [0, %d)", *t, c.Time.TPts)
		}
	}
	if err := ValidateThreats(c.Field.Threats, c.Horizon()); err != nil {
		return err
	}
	if c.Costs.Exposure < 0 || c.Costs.Move < 0 || c.Costs.Wait < 0 {
		return errors.Wrap(ErrInvalidConfig, "cost weights must not be negative")
	}
	switch c.Search.Heuristic {
	case "", "zero", "euclidean":
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown heuristic %q", c.Search.Heuristic)
	}
	if c.Search.MaxExpansions < 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_expansions must not be negative, got %d", c.Search.MaxExpansions)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Wrapf(ErrInvalidConfig, "server port %d out of range", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown log format %q", c.Logging.Format)
	}
	if c.Experiment.Runs < 0 {
		return errors.Wrapf(ErrInvalidConfig, "experiment runs must not be negative, got %d", c.Experiment.Runs)
	}
	return nil
}

// Horizon is the last time a field is evaluated at: t_final for time-expanded
// scenarios, 0 otherwise.
func (c *Config) Horizon() float64 {
	if c.Time.Enabled {
		return c.Time.TFinal
	}
	return 0
}

// ValidateThreats checks that every threat keeps a positive shape up to horizon.
func ValidateThreats(threats []threat.GaussDynamicThreat, horizon float64) error {
	for i, th := range threats {
		if err := th.CheckShape(horizon); err != nil {
			return errors.Wrapf(ErrInvalidConfig, "threat %d: %v", i, err)
		}
	}
	return nil
}
