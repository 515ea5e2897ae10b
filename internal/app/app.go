package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/honhimW/ratisui/internal/backend"
	"github.com/honhimW/ratisui/internal/bus"
	"github.com/honhimW/ratisui/internal/config"
	"github.com/honhimW/ratisui/internal/console"
	"github.com/honhimW/ratisui/internal/decode"
	"github.com/honhimW/ratisui/internal/decode/luadec"
	"github.com/honhimW/ratisui/internal/dispatcher"
	"github.com/honhimW/ratisui/internal/explorer"
	"github.com/honhimW/ratisui/internal/tui"
)

// DefaultTickRate is how often the render loop applies outcomes and
// repaints.
const DefaultTickRate = 50 * time.Millisecond

// Options configures an Application.
type Options struct {
	// Datasource names a saved connection; empty uses the default.
	Datasource string

	// Host and Port connect directly, bypassing saved datasources.
	Host string
	Port int

	LogLevel string
	TickRate time.Duration

	// ConfigDir overrides the state directory.
	ConfigDir string
}

// Application owns every component for one connected data source and
// runs the render loop.
type Application struct {
	opts   Options
	log    *Logger
	store  *config.Store
	client *backend.Client

	d       *dispatcher.Dispatcher
	scanner *explorer.Scanner
	session *console.Session
	chain   *decode.Chain
	bus     *bus.Bus
	plugins []*luadec.Plugin

	screen tcell.Screen
	state  tui.State
	frame  bus.Frame
	// pending holds what the user was typing before history
	// navigation started, restored when navigating past the newest
	// entry.
	pending string
}

// New connects to the configured data source and assembles the
// components. The screen is attached separately so tests can inject
// a simulation screen.
func New(ctx context.Context, opts Options) (*Application, error) {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}

	var storeOpts []config.Option
	if opts.ConfigDir != "" {
		storeOpts = append(storeOpts, config.WithDir(opts.ConfigDir))
	}
	store, err := config.NewStore(storeOpts...)
	if err != nil {
		return nil, err
	}

	log := NullLogger
	if lvl := opts.LogLevel; lvl != "" {
		fl, err := NewFileLogger(filepath.Join(store.Dir(), "ratisui.log"), ParseLogLevel(lvl))
		if err == nil {
			log = fl
		}
	}

	bopts, delimiter, err := resolveBackend(store, opts)
	if err != nil {
		return nil, err
	}
	client, err := backend.Open(ctx, bopts)
	if err != nil {
		return nil, err
	}
	log.Info("connected to %s (%s)", client.Addr(), client.Mode())

	d := dispatcher.New(
		dispatcher.WithRetry(3, 50*time.Millisecond, backend.IsTransient),
	)
	scanner := explorer.NewScanner(d, client, delimiter)
	session := console.NewSession(d, client, console.DefaultHistorySize)
	session.History().Load(store.LoadHistory())

	chain := decode.NewChain()
	plugins, perrs := luadec.LoadDir(filepath.Join(store.Dir(), "decoders"))
	for _, p := range plugins {
		chain.Register(p)
		log.Info("decoder plugin loaded: %s", p.Name())
	}
	for _, perr := range perrs {
		log.Warn("decoder plugin skipped: %v", perr)
	}

	a := &Application{
		opts:    opts,
		log:     log,
		store:   store,
		client:  client,
		d:       d,
		scanner: scanner,
		session: session,
		chain:   chain,
		bus:     bus.New(d, scanner, session, chain),
		plugins: plugins,
	}
	return a, nil
}

// resolveBackend turns options plus saved state into connection
// parameters.
func resolveBackend(store *config.Store, opts Options) (backend.Options, string, error) {
	if opts.Host != "" {
		port := opts.Port
		if port == 0 {
			port = 6379
		}
		return backend.Options{Host: opts.Host, Port: port}, ":", nil
	}
	ds, err := store.FindDatasource(opts.Datasource)
	if err != nil {
		return backend.Options{}, "", err
	}
	bopts := backend.Options{
		Host:     ds.Host,
		Port:     ds.Port,
		Username: ds.Username,
		Password: ds.Password,
		DB:       ds.DB,
		UseTLS:   ds.UseTLS,
	}
	if ds.Tunnel != nil {
		bopts.Tunnel = &backend.TunnelOptions{
			Host:     ds.Tunnel.Host,
			Port:     ds.Tunnel.Port,
			Username: ds.Tunnel.Username,
			Password: ds.Tunnel.Password,
		}
	}
	delimiter := ds.Delimiter
	if delimiter == "" {
		delimiter = ":"
	}
	return bopts, delimiter, nil
}

// SetScreen attaches the terminal. Must be called before Run.
func (a *Application) SetScreen(s tcell.Screen) { a.screen = s }

// Bus exposes the event bus for external shutdown signalling.
func (a *Application) Bus() *bus.Bus { return a.bus }

// Run starts the workers and loops until exit. It returns ErrQuit on
// a normal user exit.
func (a *Application) Run(ctx context.Context) error {
	if a.screen == nil {
		return ErrNoScreen
	}
	if err := a.d.Start(); err != nil {
		return err
	}

	a.scanner.StartScan("*", explorer.DefaultBatchSize)
	if desc, err := a.Describe(ctx); err == nil {
		a.state.Status = desc
	}

	events := make(chan tcell.Event, 16)
	evCtx, evCancel := context.WithCancel(ctx)
	defer evCancel()
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-evCtx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(a.opts.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-a.bus.Events():
			switch e {
			case bus.EventExit:
				return ErrQuit
			case bus.EventClientChanged:
				a.scanner.StartScan("*", explorer.DefaultBatchSize)
			}
		case ev := <-events:
			if err := a.handleEvent(ev); err != nil {
				return err
			}
		case <-ticker.C:
			a.frame = a.bus.Tick()
			tui.Render(a.screen, a.frame, a.state)
			a.screen.Show()
		}
	}
}

// Shutdown stops workers, persists history, and releases the
// connection. Safe to call after Run returns.
func (a *Application) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = a.d.Stop(ctx)
	if err := a.store.SaveHistory(a.session.History().Entries()); err != nil {
		a.log.Warn("history not saved: %v", err)
	}
	for _, p := range a.plugins {
		p.Close()
	}
	if err := a.client.Close(); err != nil {
		a.log.Warn("close connection: %v", err)
	}
	stats := a.d.Stats()
	a.log.Info("session done: %d submitted, %d completed, %d failed, %d stale dropped",
		stats.Submitted, stats.Completed, stats.Failed, stats.DroppedStale)
}

func (a *Application) handleEvent(ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		return a.handleKey(ev)
	}
	return nil
}

func (a *Application) handleKey(ev *tcell.EventKey) error {
	// Global bindings first.
	switch ev.Key() {
	case tcell.KeyCtrlQ:
		return ErrQuit
	case tcell.KeyCtrlC:
		if live, _ := a.session.Streaming(); live {
			a.session.CancelStream()
			return nil
		}
		return ErrQuit
	case tcell.KeyTab:
		// In the console Tab completes the word at the cursor;
		// with nothing to complete it falls back to focus cycling.
		if a.state.Focus != tui.FocusConsole || !a.completeInput() {
			a.cycleFocus()
		}
		return nil
	case tcell.KeyF5:
		a.scanner.StartScan("*", explorer.DefaultBatchSize)
		return nil
	}

	switch a.state.Focus {
	case tui.FocusTree:
		a.handleTreeKey(ev)
	case tui.FocusFilter:
		a.handleFilterKey(ev)
	case tui.FocusConsole:
		return a.handleConsoleKey(ev)
	}
	return nil
}

func (a *Application) cycleFocus() {
	switch a.state.Focus {
	case tui.FocusTree:
		a.state.Focus = tui.FocusConsole
	case tui.FocusConsole:
		a.state.Focus = tui.FocusTree
	case tui.FocusFilter:
		a.state.Focus = tui.FocusTree
	}
}

func (a *Application) handleTreeKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyUp:
		if a.state.TreeIndex > 0 {
			a.state.TreeIndex--
		}
	case tcell.KeyDown:
		a.state.TreeIndex++
	case tcell.KeyEnter:
		keys := tui.VisibleKeys(a.frame, a.state)
		if a.state.TreeIndex >= 0 && a.state.TreeIndex < len(keys) {
			a.scanner.LoadKey(keys[a.state.TreeIndex])
		}
	default:
		if ev.Rune() == '/' {
			a.state.Focus = tui.FocusFilter
		}
	}
}

func (a *Application) handleFilterKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		a.state.Filter = ""
		a.state.Focus = tui.FocusTree
	case tcell.KeyEnter:
		a.state.Focus = tui.FocusTree
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(a.state.Filter); n > 0 {
			a.state.Filter = a.state.Filter[:n-1]
		}
	default:
		if r := ev.Rune(); r != 0 {
			a.state.Filter += string(r)
			a.state.TreeIndex = 0
		}
	}
}

func (a *Application) handleConsoleKey(ev *tcell.EventKey) error {
	switch ev.Key() {
	case tcell.KeyEnter:
		return a.submitInput()
	case tcell.KeyUp:
		if prev, ok := a.session.History().Prev(); ok {
			if a.pending == "" {
				a.pending = a.state.Input
			}
			a.setInput(prev)
		}
	case tcell.KeyDown:
		if next, ok := a.session.History().Next(); ok {
			a.setInput(next)
		} else {
			a.setInput(a.pending)
			a.pending = ""
		}
	case tcell.KeyLeft:
		if a.state.Cursor > 0 {
			a.state.Cursor--
		}
	case tcell.KeyRight:
		if a.state.Cursor < len(a.state.Input) {
			a.state.Cursor++
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if a.state.Cursor > 0 {
			in := a.state.Input
			a.state.Input = in[:a.state.Cursor-1] + in[a.state.Cursor:]
			a.state.Cursor--
		}
	case tcell.KeyCtrlU:
		a.setInput("")
	case tcell.KeyCtrlW:
		a.deleteWord()
	default:
		if r := ev.Rune(); r != 0 {
			in := a.state.Input
			a.state.Input = in[:a.state.Cursor] + string(r) + in[a.state.Cursor:]
			a.state.Cursor++
		}
	}
	return nil
}

func (a *Application) setInput(s string) {
	a.state.Input = s
	a.state.Cursor = len(s)
}

func (a *Application) deleteWord() {
	in := a.state.Input[:a.state.Cursor]
	trimmed := len(in)
	for trimmed > 0 && in[trimmed-1] == ' ' {
		trimmed--
	}
	for trimmed > 0 && in[trimmed-1] != ' ' {
		trimmed--
	}
	a.state.Input = in[:trimmed] + a.state.Input[a.state.Cursor:]
	a.state.Cursor = trimmed
}

func (a *Application) submitInput() error {
	line := strings.TrimSpace(a.state.Input)
	a.setInput("")
	a.pending = ""

	sub, err := a.session.SubmitLine(line)
	if err != nil {
		a.bus.PublishToast(bus.ToastError, "parse", err.Error())
		return nil
	}
	switch sub.Local {
	case console.LocalClear:
		a.bus.ClearConsole()
	case console.LocalExit:
		return ErrQuit
	}
	if line != "" {
		if err := a.store.AppendHistory(line); err != nil {
			a.log.Warn("history append: %v", err)
		}
	}
	return nil
}

// completeInput replaces the word at the cursor with its first
// completion candidate. It reports whether a candidate applied.
func (a *Application) completeInput() bool {
	start := strings.LastIndexByte(a.state.Input[:a.state.Cursor], ' ') + 1
	prefix := a.state.Input[start:a.state.Cursor]
	if prefix == "" {
		return false
	}
	candidates := a.Complete(prefix)
	if len(candidates) == 0 {
		return false
	}
	rest := a.state.Input[a.state.Cursor:]
	a.state.Input = a.state.Input[:start] + candidates[0] + rest
	a.state.Cursor = start + len(candidates[0])
	return true
}

// Complete exposes autocompletion over the command vocabulary plus
// scanned keys, for the input widget.
func (a *Application) Complete(prefix string) []string {
	var keys func() []string
	if a.scanner != nil {
		keys = a.scanner.Keys
	}
	c := console.NewCompleter(keys)
	return c.Complete(prefix)
}

// Describe summarizes the connected server for the status line,
// including the total keyspace size when DBSIZE answers.
func (a *Application) Describe(ctx context.Context) (string, error) {
	sum, err := a.client.Describe(ctx)
	if err != nil {
		return "", err
	}
	total := int64(-1)
	if n, err := a.client.CountKeys(ctx); err == nil {
		total = n
	}
	return formatSummary(a.client.Addr(), sum, total), nil
}

func formatSummary(addr string, sum backend.ServerSummary, total int64) string {
	s := fmt.Sprintf("%s %s %s mem=%s clients=%s",
		addr, sum.Version, sum.Mode, sum.Memory, sum.Clients)
	if total >= 0 {
		s += fmt.Sprintf(" dbsize=%d", total)
	}
	return s
}
