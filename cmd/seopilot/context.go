package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"seopilot/internal/config"
	"seopilot/internal/ledger"
	"seopilot/internal/logging"
	"seopilot/internal/resolver"
	"seopilot/internal/safety"
	"seopilot/internal/scheduler"
	"seopilot/internal/store"
	"seopilot/internal/writeback"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// session is the wired pipeline a command operates on.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	hub       *logging.DiagnosticsHub
	store     *store.Store
	ledger    *ledger.Ledger
	filter    *safety.Filter
	resolver  *resolver.Resolver
	writer    *writeback.Writer
	scheduler *scheduler.Scheduler
}

func (r *session) Close() error {
	if r == nil || r.store == nil {
		return nil
	}
	return r.store.Close()
}

// openSession opens the database and wires the pipeline. The store doubles
// as the durable diagnostics sink.
func (c *commandContext) openSession() (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	hub := logging.NewDiagnosticsHub(cfg.Logging.DiagnosticsCap)
	logger, err := logging.NewFromConfig(cfg, hub)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := store.Open(cfg, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	hub.AddSink(st)

	l := ledger.New(st)
	filter := safety.NewFromConfig(cfg, logger)
	res, err := resolver.New(cfg, resolver.Dependencies{
		Records:    st,
		Meta:       st,
		References: st,
		Candidates: st,
		Ledger:     l,
	}, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	writer := writeback.NewWriter(cfg, st, filter, logger)

	return &session{
		cfg:       cfg,
		logger:    logger,
		hub:       hub,
		store:     st,
		ledger:    l,
		filter:    filter,
		resolver:  res,
		writer:    writer,
		scheduler: scheduler.New(cfg, st, st, res, writer, logger),
	}, nil
}

func (c *commandContext) withSession(fn func(*session) error) error {
	rt, err := c.openSession()
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
