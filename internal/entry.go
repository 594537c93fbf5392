// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/voxnote/internal/api"
	"github.com/starford/voxnote/internal/conversation"
	"github.com/starford/voxnote/internal/llm"
	"github.com/starford/voxnote/internal/locale"
	"github.com/starford/voxnote/internal/mcpserver"
	"github.com/starford/voxnote/internal/metrics"
	"github.com/starford/voxnote/internal/models"
	"github.com/starford/voxnote/internal/noteservice"
	"github.com/starford/voxnote/internal/sse"
	"github.com/starford/voxnote/internal/storage"
)

// core is the note stack shared by every front end.
type core struct {
	store  *noteservice.Store
	svc    *noteservice.Service
	engine *conversation.Engine
	// docPath is set for the JSON backend only.
	docPath string
}

func newApplication(opts []Option) (*application, error) {
	app := &application{
		version: "dev",
		in:      os.Stdin,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger initializes the structured JSON logger on w.
func (a *application) newLogger(w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func (a *application) buildCore(ctx context.Context, logger *slog.Logger, engineOpts ...conversation.EngineOption) (*core, error) {
	cfg := a.config
	c := &core{}

	var provider storage.Provider
	switch cfg.Store.Backend {
	case BackendSQLite:
		db, err := storage.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		provider = db
	default:
		doc, err := storage.NewJSONFile(cfg.Store.DocumentPath())
		if err != nil {
			return nil, fmt.Errorf("init document store: %w", err)
		}
		provider = doc
		c.docPath = doc.Path()
	}

	store, err := noteservice.Open(ctx, provider,
		noteservice.WithLogger(logger),
		noteservice.WithSaveAttempts(cfg.Store.SaveAttempts),
	)
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("open notes: %w", err)
	}
	c.store = store
	c.svc = noteservice.NewService(store, logger)

	selector := a.selector
	if selector == nil && cfg.LLM.Enabled() {
		gen, err := llm.NewGeminiGenerator(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init llm: %w", err)
		}
		selector = llm.NewSelector(gen, cfg.LLM.Timeout, logger)
		logger.Info("LLM fallback enabled", slog.String("model", cfg.LLM.Model))
	}

	machineOpts := []conversation.Option{
		conversation.WithLogger(logger),
		conversation.WithHistorySize(cfg.Conversation.HistorySize),
		conversation.WithDefaultLanguage(locale.ParseLanguage(cfg.Conversation.DefaultLanguage)),
	}
	if selector != nil {
		machineOpts = append(machineOpts, conversation.WithSelector(selector))
	}
	c.engine = conversation.NewEngine(c.svc, append([]conversation.EngineOption{
		conversation.WithSessionTTL(cfg.Conversation.SessionTTL),
		conversation.WithMachineOptions(machineOpts...),
		conversation.WithEngineLogger(logger),
	}, engineOpts...)...)

	logger.Info("Notes loaded",
		slog.String("backend", cfg.Store.Backend),
		slog.Int("notes", len(c.svc.Notes())))
	return c, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.newLogger(os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker fed by store changes and conversation turns.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := app.buildCore(ctx, logger, conversation.WithTurnFunc(
		func(id string, st conversation.State, res conversation.Result) {
			t := sse.TurnData{
				Session:      id,
				Phase:        string(st.Phase),
				Operation:    res.Operation,
				NotesUpdated: res.NotesUpdated,
			}
			if st.Current != nil {
				t.Focus = st.Current.Title
			}
			broker.PublishTurn(t)
		}))
	if err != nil {
		return err
	}
	defer c.store.Close()
	c.store.SetChangeFunc(func(kind noteservice.EventKind, n *models.Note) {
		broker.PublishNote(string(kind), n)
	})

	apiRouter := api.NewRouter(c.engine, c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the document when it is edited by hand.
	if c.docPath != "" && cfg.Store.Watch {
		g.Go(func() error {
			err := storage.Watch(gCtx, c.docPath, logger, func() {
				if _, err := c.store.Reload(gCtx); err != nil {
					logger.Warn("reload failed", slog.String("error", err.Error()))
				}
			})
			if err != nil {
				logger.Warn("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Expire idle conversations.
	g.Go(func() error {
		return c.engine.Run(gCtx)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the background loops stop with the server.
var errShutdown = errors.New("shutdown")

// RunREPL reads one utterance per line and prints the response. Lines ":he"
// and ":en" switch the language; ":help" prints the usage guide.
func RunREPL(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger(os.Stderr)

	c, err := app.buildCore(ctx, logger)
	if err != nil {
		return err
	}
	defer c.store.Close()

	lang := app.lang
	if lang == "" {
		lang = locale.ParseLanguage(app.config.Conversation.DefaultLanguage)
	}
	session := c.engine.Open()

	fmt.Fprintln(app.out, locale.Help(lang))
	scanner := bufio.NewScanner(app.in)
	for {
		fmt.Fprint(app.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case ":he":
			lang = locale.Hebrew
			continue
		case ":en":
			lang = locale.English
			continue
		case ":help":
			fmt.Fprintln(app.out, locale.Help(lang))
			continue
		case ":quit", ":q":
			return nil
		}
		_, res := c.engine.Process(ctx, session, line, lang)
		fmt.Fprintln(app.out, res.Response)
		for _, n := range res.FoundNotes {
			fmt.Fprintf(app.out, "  [%s] %s\n", n.ID, n.Title)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	fmt.Fprintln(app.out)
	return scanner.Err()
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they
// do not corrupt the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.newLogger(os.Stderr)

	c, err := app.buildCore(ctx, logger)
	if err != nil {
		return err
	}
	defer c.store.Close()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.engine.Run(gCtx)
	})
	g.Go(func() error {
		srv := mcpserver.New(c.engine, c.svc, app.version)
		logger.Info("MCP server listening on stdio")
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		return err
	}
	return nil
}
