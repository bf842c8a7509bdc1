package search

import (
	"threatnav-go/grid"
	"time"

	"github.com/go-logr/logr"
)

// Step describes the search after a vertex has been closed.
type Step struct {
	Index       int       `json:"index"`
	Current     grid.Node `json:"current"`
	G           float64   `json:"g"`
	OpenCount   int       `json:"open"`
	ClosedCount int       `json:"closed"`
}

// Observer is called after each expansion. A non-nil error aborts the search.
type Observer func(Step) error

// Recorder receives a summary of each finished search.
type Recorder interface {
	ObserveSearch(variant string, found bool, expanded int, elapsed time.Duration)
}

// Options holds search parameters.
type Options struct {
	Heuristic     grid.Heuristic
	Logger        logr.Logger
	Observer      Observer
	Recorder      Recorder
	CheckNegative bool
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithHeuristic sets the estimate of remaining cost. The default is the node's
// own heuristic, which is zero.
func WithHeuristic(h grid.Heuristic) Option {
	return func(o *Options) { o.Heuristic = h }
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithObserver installs a per-expansion callback.
func WithObserver(observer Observer) Option {
	return func(o *Options) { o.Observer = observer }
}

// WithRecorder reports finished searches to r.
func WithRecorder(r Recorder) Option {
	return func(o *Options) { o.Recorder = r }
}

// WithNegativeCostCheck makes the search fail on a negative edge cost.
func WithNegativeCostCheck() Option {
	return func(o *Options) { o.CheckNegative = true }
}

func newOptions(opts []Option) Options {
	options := Options{
		Heuristic: grid.ZeroHeuristic,
		Logger:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Heuristic == nil {
		options.Heuristic = grid.ZeroHeuristic
	}
	return options
}
