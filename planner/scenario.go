package planner

import (
	"math"
	"math/rand"
	"threatnav-go/core"
	"threatnav-go/grid"
	"threatnav-go/threat"

	"github.com/pkg/errors"
)

var (
	// ErrOutOfBounds is returned for a start or goal outside the workspace.
	ErrOutOfBounds = errors.New("location outside the workspace")
	// ErrNoTimeDimension is returned for operations that need time.enabled.
	ErrNoTimeDimension = errors.New("scenario has no time dimension")
)

// Scenario is the grid and threat field described by a config.
type Scenario struct {
	Config  *core.Config
	Spatial *grid.XYEnvironment
	Timed   *grid.XYTEnvironment
	Field   *threat.GaussDynamicField

	// threats holds the configured threats without any random ones.
	threats []threat.GaussDynamicThreat
}

// NewScenario builds the environment and field for cfg. Threat files are
// resolved through fm.
func NewScenario(cfg *core.Config, fm *core.FileManager) (*Scenario, error) {
	s := &Scenario{Config: cfg}

	if cfg.Time.Enabled {
		env, err := grid.NewXYTEnvironment(cfg.Grid.XSize, cfg.Grid.YSize, cfg.Grid.XPts, cfg.Grid.YPts, cfg.Time.TFinal, cfg.Time.TPts)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build time environment")
		}
		s.Timed = env
		s.Spatial = &env.XYEnvironment
	} else {
		env, err := grid.NewXYEnvironment(cfg.Grid.XSize, cfg.Grid.YSize, cfg.Grid.XPts, cfg.Grid.YPts)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build environment")
		}
		s.Spatial = env
	}

	s.threats = append(s.threats, cfg.Field.Threats...)
	if cfg.Field.ThreatsFile != "" {
		loaded, err := fm.LoadThreats(cfg.Field.ThreatsFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load threats file")
		}
		if err := core.ValidateThreats(loaded, cfg.Horizon()); err != nil {
			return nil, errors.Wrapf(err, "threats file %s", cfg.Field.ThreatsFile)
		}
		s.threats = append(s.threats, loaded...)
	}

	var seed int64
	if cfg.Field.Random != nil {
		seed = cfg.Field.Random.Seed
	}
	s.Field = s.FieldWithSeed(seed, cfg.Field.Random)
	return s, nil
}

// Env returns the environment searched by the scenario.
func (s *Scenario) Env() grid.Environment {
	if s.Timed != nil {
		return s.Timed
	}
	return s.Spatial
}

// HasTime reports whether the scenario searches a time-expanded grid.
func (s *Scenario) HasTime() bool {
	return s.Timed != nil
}

// FieldWithSeed builds a field from the configured threats plus, when random
// is set, threats drawn from a generator seeded with seed.
func (s *Scenario) FieldWithSeed(seed int64, random *core.RandomFieldConfig) *threat.GaussDynamicField {
	threats := make([]threat.GaussDynamicThreat, len(s.threats))
	copy(threats, s.threats)
	field := threat.NewGaussDynamicField(s.Config.Field.Offset, threats...)
	if random == nil {
		return field
	}

	tFinal := 1.0
	if s.Timed != nil {
		tFinal = s.Timed.TFinal
	}
	rng := rand.New(rand.NewSource(seed))
	threat.GenerateRandom(rng, field, threat.Bounds{XSize: s.Spatial.XSize, YSize: s.Spatial.YSize, TFinal: tFinal}, threat.RandomOptions{
		Count:          random.Count,
		FixedLocation:  random.FixedLocation,
		FixedShape:     random.FixedShape,
		FixedIntensity: random.FixedIntensity,
	})
	return field
}

// StartNode returns the node nearest to p on the first time layer.
func (s *Scenario) StartNode(p core.PointConfig) (grid.Node, error) {
	if !s.Spatial.Contains(p.X, p.Y) {
		return grid.Node{}, errors.Wrapf(ErrOutOfBounds, "start (%g, %g)", p.X, p.Y)
	}
	if s.Timed != nil {
		return s.Timed.Node(s.Timed.IDFromLocation(p.X, p.Y, 0)), nil
	}
	return s.Spatial.Node(s.Spatial.IDFromLocation(p.X, p.Y)), nil
}

// GoalNode returns the node nearest to g. Without a time index the goal lies
// on the final time layer.
func (s *Scenario) GoalNode(g core.GoalConfig) (grid.Node, error) {
	if !s.Spatial.Contains(g.X, g.Y) {
		return grid.Node{}, errors.Wrapf(ErrOutOfBounds, "goal (%g, %g)", g.X, g.Y)
	}
	if s.Timed == nil {
		return s.Spatial.Node(s.Spatial.IDFromLocation(g.X, g.Y)), nil
	}
	tIdx := s.Timed.TPts - 1
	if g.TIdx != nil {
		tIdx = *g.TIdx
	}
	if tIdx < 0 || tIdx >= s.Timed.TPts {
		return grid.Node{}, errors.Wrapf(ErrOutOfBounds, "goal time index %d", tIdx)
	}
	return s.Timed.Node(s.Timed.IDFromLocation(g.X, g.Y, tIdx)), nil
}

// heuristic returns the estimate selected by name. The Euclidean estimate is
// scaled by the cheapest possible cost per unit of distance, which keeps it
// admissible as long as every threat has non-negative intensity.
func (s *Scenario) heuristic(name string, weights core.CostConfig) grid.Heuristic {
	if name != "euclidean" {
		return grid.ZeroHeuristic
	}
	perStep := math.Max(s.Spatial.SepX, s.Spatial.SepY)
	offset := math.Max(s.Config.Field.Offset, 0)
	if s.Timed == nil {
		return grid.EuclideanHeuristic(offset / perStep)
	}
	return grid.EuclideanHeuristic(weights.Move + weights.Exposure*offset/perStep)
}
