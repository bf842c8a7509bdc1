package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"threatnav-go/core"
	"threatnav-go/planner"
	"threatnav-go/web"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrUnknownMode is returned for a mode other than plan, compare or serve.
var ErrUnknownMode = errors.New("unknown mode")

// App wires configuration, planner, metrics and server together.
type App struct {
	ConfigManager *core.ConfigManager
	Planner       *planner.Planner
	Metrics       *core.Metrics
	Logger        *zap.Logger
	out           io.Writer
}

// NewApp loads the scenario at configPath and builds the application.
func NewApp(configPath string, out io.Writer) (*App, error) {
	cm, err := core.NewConfigManager(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config manager")
	}
	logger, err := core.NewLogger(cm.GetConfig().Logging)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}
	return NewAppWithDeps(cm, core.NewFileManager(filepath.Dir(configPath)), logger, out)
}

// NewAppWithDeps creates a new App with dependencies.
func NewAppWithDeps(cm *core.ConfigManager, fm *core.FileManager, logger *zap.Logger, out io.Writer) (*App, error) {
	scenario, err := planner.NewScenario(cm.GetConfig(), fm)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build scenario")
	}
	metrics := core.NewMetrics()
	p := planner.New(scenario,
		planner.WithLogger(core.NewLogr(logger.Named("planner"))),
		planner.WithRecorder(metrics),
	)
	logger.Info("scenario loaded",
		zap.String("env", fmt.Sprint(scenario.Env())),
		zap.Stringer("field", scenario.Field),
	)
	return &App{
		ConfigManager: cm,
		Planner:       p,
		Metrics:       metrics,
		Logger:        logger,
		out:           out,
	}, nil
}

// Run executes mode. runs overrides the configured number of comparison runs
// when positive.
func (a *App) Run(ctx context.Context, mode string, runs int) error {
	switch mode {
	case "plan":
		return a.RunPlan(ctx)
	case "compare":
		if runs <= 0 {
			runs = a.ConfigManager.GetConfig().Experiment.Runs
		}
		return a.RunCompare(ctx, runs)
	case "serve":
		return a.Serve(ctx)
	default:
		return errors.Wrapf(ErrUnknownMode, "%q", mode)
	}
}

// RunPlan plans the configured route and prints it with the collected metrics.
func (a *App) RunPlan(ctx context.Context) error {
	plan, err := a.Planner.Plan(ctx, planner.PlanRequest{}, nil)
	if err != nil {
		return err
	}
	if !plan.Found {
		fmt.Fprintf(a.out, "No path found after %d expansions (run %s)\n", plan.Expanded, plan.RunID)
		return nil
	}

	fmt.Fprintf(a.out, "Run %s: %s path with %d waypoints, cost %.4f, %d expansions in %s\n",
		plan.RunID, plan.Variant, len(plan.Waypoints), plan.Cost, plan.Expanded, plan.Elapsed)
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "step\tid\tx\ty\tt\tthreat")
	for i, node := range plan.Waypoints {
		fmt.Fprintf(w, "%d\t%d\t%.2f\t%.2f\t%.2f\t%.4f\n", i, node.ID, node.X, node.Y, node.Time, plan.Threat[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out)
	return a.Metrics.WriteText(a.out)
}

// RunCompare runs the wait comparison and prints one row per run.
func (a *App) RunCompare(ctx context.Context, runs int) error {
	results, err := a.Planner.CompareWait(ctx, runs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "run\tseed\tthreats\twait_cost\tno_wait_cost\tsaving\twait_expanded\tno_wait_expanded")
	var cheaper int
	var total float64
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%.4f\t%d\t%d\n",
			r.Run, r.Seed, r.NThreats, costCell(r.Wait), costCell(r.NoWait), r.Saving(), r.Wait.Expanded, r.NoWait.Expanded)
		if r.Saving() > 1e-9 {
			cheaper++
		}
		total += r.Saving()
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(results) > 0 {
		fmt.Fprintf(a.out, "\nwaiting was cheaper in %d of %d runs, mean saving %.4f\n", cheaper, len(results), total/float64(len(results)))
	}
	return nil
}

// Serve runs the websocket hub and HTTP server until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.ConfigManager.GetConfig()
	hub := web.NewHub(a.Logger.Named("hub"), cfg.Server.AllowedOrigins)
	go hub.Run(ctx)

	server := web.NewServer(cfg.Server, a.Planner, hub, a.Metrics, a.Logger.Named("web"))
	return server.Run(ctx)
}

func costCell(o planner.Outcome) string {
	if !o.Found {
		return "-"
	}
	return fmt.Sprintf("%.4f", o.Cost)
}
