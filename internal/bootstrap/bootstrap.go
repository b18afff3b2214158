package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ternarybob/arbor"

	jobsinadapter "camwatch/internal/modules/jobs/adapter/in"
	jobsoutadapter "camwatch/internal/modules/jobs/adapter/out"
	jobsin "camwatch/internal/modules/jobs/port/in"
	jobsservice "camwatch/internal/modules/jobs/service"
	jobsusecase "camwatch/internal/modules/jobs/usecase"
	monitorinadapter "camwatch/internal/modules/monitor/adapter/in"
	monitoroutadapter "camwatch/internal/modules/monitor/adapter/out"
	monitorin "camwatch/internal/modules/monitor/port/in"
	monitorout "camwatch/internal/modules/monitor/port/out"
	monitorservice "camwatch/internal/modules/monitor/service"
	monitorusecase "camwatch/internal/modules/monitor/usecase"
	"camwatch/internal/platform/clock"
	"camwatch/internal/platform/config"
	"camwatch/internal/platform/logging"
	"camwatch/internal/platform/schedule"
	uiapp "camwatch/internal/ui/app"
)

// Options selects how a host presents progress. Sinks receive every
// monitor event in order, after the log sink.
type Options struct {
	Sinks     []monitorout.Sink
	Logger    arbor.ILogger
	Scheduler schedule.Scheduler
}

type App struct {
	Config     config.Config
	Logger     arbor.ILogger
	MonitorCLI monitorinadapter.CLIHandler
	JobsCLI    jobsinadapter.CLIHandler
	Monitor    monitorin.Usecase
	Jobs       jobsin.Usecase

	closers []func() error
}

func New(cfg config.Config, opts Options) (*App, error) {
	ctx := context.Background()
	logger := logging.OrNop(opts.Logger)
	app := &App{Config: cfg, Logger: logger}

	store, history, err := app.openStores(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	interval, err := cfg.PollInterval()
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	httpClient := &http.Client{Timeout: timeout}

	statusClient := monitoroutadapter.NewHTTPStatusClient(cfg.Appliance.BaseURL,
		monitoroutadapter.WithStatusPath(cfg.Appliance.StatusPath),
		monitoroutadapter.WithHTTPClient(httpClient),
		monitoroutadapter.WithLogger(logger),
		monitoroutadapter.WithRateLimit(cfg.Appliance.RateLimit),
	)

	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = schedule.NewCron(logger)
	}

	sink := monitoroutadapter.MultiSink{monitoroutadapter.NewLogSink(logger)}
	sink = append(sink, opts.Sinks...)

	monitorSvc := monitorservice.NewMonitorService(clock.SystemClock{}, statusClient, store, sink, scheduler, monitorservice.Options{
		Interval: interval,
		History:  history,
		Logger:   logger,
	})
	monitorUC := monitorusecase.NewInteractor(monitorSvc)
	// Poll goroutines must be gone before stores close.
	app.closers = append([]func() error{func() error { return monitorUC.Stop(ctx) }}, app.closers...)

	applianceClient := jobsoutadapter.NewHTTPApplianceClient(cfg.Appliance.BaseURL,
		jobsoutadapter.WithHTTPClient(httpClient),
		jobsoutadapter.WithLogger(logger),
		jobsoutadapter.WithRateLimit(cfg.Appliance.RateLimit),
	)
	jobsUC := jobsusecase.NewInteractor(jobsservice.NewJobsService(applianceClient), monitorUC)

	app.Monitor = monitorUC
	app.Jobs = jobsUC
	app.MonitorCLI = monitorinadapter.NewCLIHandler(monitorUC)
	app.JobsCLI = jobsinadapter.NewCLIHandler(jobsUC)
	return app, nil
}

// openStores builds the session store for the configured driver and, unless
// the driver is in-memory, the sqlite history store.
func (a *App) openStores(ctx context.Context) (monitorout.SessionStore, monitorout.HistoryStore, error) {
	cfg := a.Config
	var (
		store monitorout.SessionStore
		db    *sql.DB
		err   error
	)
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return monitoroutadapter.NewMemorySessionStore(), nil, nil
	case config.StoreFile:
		store = monitoroutadapter.NewFileSessionStore(cfg.StorePath())
	case config.StoreSQLite:
		db, err = a.openDB(cfg.StorePath())
		if err != nil {
			return nil, nil, err
		}
		store, err = monitoroutadapter.NewSQLiteSessionStore(ctx, db)
		if err != nil {
			return nil, nil, fmt.Errorf("new sqlite session store: %w", err)
		}
	case config.StoreBadger:
		badgerStore, err := monitoroutadapter.NewBadgerSessionStore(cfg.StorePath())
		if err != nil {
			return nil, nil, fmt.Errorf("new badger session store: %w", err)
		}
		a.closers = append(a.closers, badgerStore.Close)
		store = badgerStore
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if db == nil {
		db, err = a.openDB(cfg.HistoryPath())
		if err != nil {
			return nil, nil, err
		}
	}
	history, err := monitoroutadapter.NewSQLiteHistoryStore(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("new history store: %w", err)
	}
	return store, history, nil
}

func (a *App) openDB(path string) (*sql.DB, error) {
	db, err := monitoroutadapter.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	return db, nil
}

// Close stops polling and releases the stores.
func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// RunTUI hosts the progress panel. sink must be the ProgramSink passed to New
// so monitor events reach the program.
func RunTUI(app *App, sink *uiapp.ProgramSink) error {
	model := uiapp.NewModel(app.Monitor, app.Jobs)
	program := tea.NewProgram(model, tea.WithAltScreen())
	sink.Attach(program)
	_, err := program.Run()
	return err
}
