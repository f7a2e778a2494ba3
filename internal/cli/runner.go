package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/app"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/session"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/templates"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Options carry the loaded config and the process streams.
type Options struct {
	Config *config.Config
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (o *Options) defaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// runner is one invocation's wiring.
type runner struct {
	opt     Options
	cfg     *config.Config
	log     *logging.Logger
	session *session.Session
	client  *api.Client
}

func newRunner(opt Options) (*runner, error) {
	cfg := opt.Config
	ui.SetTheme(cfg.Theme)

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	st, err := jsonstore.Open(cfg.StorageFile)
	if err != nil {
		logger.Close()
		return nil, err
	}
	sess := session.New(st)
	client, err := api.New(cfg.APIURL,
		api.WithTokenSource(sess),
		api.WithLogger(logger.Logger),
	)
	if err != nil {
		logger.Close()
		return nil, err
	}
	return &runner{opt: opt, cfg: cfg, log: logger, session: sess, client: client}, nil
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	opt.defaults()
	if opt.Config == nil {
		ui.Fail(opt.Stderr, "no configuration")
		return 1
	}

	cmd, a := "ui", []string(nil)
	if len(args) > 0 {
		cmd, a = args[0], args[1:]
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		PrintHelp(opt.Stdout)
		return 0
	}

	r, err := newRunner(opt)
	if err != nil {
		ui.Fail(opt.Stderr, err.Error())
		return 1
	}
	defer r.log.Close()
	r.log.Debug("run", "cmd", cmd, "api", r.client.BaseURL())

	switch cmd {
	case "ui":
		return r.doUI(ctx)

	case "ls":
		return r.doList(ctx)

	case "add":
		if len(a) == 0 {
			r.fail("usage: tada add <body...>")
			return 2
		}
		return r.doAdd(ctx, strings.Join(a, " "))

	case "done":
		n, code := r.index("done", a)
		if code != 0 {
			return code
		}
		return r.doToggle(ctx, n)

	case "rm":
		n, code := r.index("rm", a)
		if code != 0 {
			return code
		}
		return r.doRemove(ctx, n)

	case "auth":
		if len(a) == 0 {
			r.fail("usage: tada auth <login|logout|status|whoami>")
			return 2
		}
		switch a[0] {
		case "login":
			return r.doAuthLogin(ctx, a[1:])
		case "logout":
			return r.doAuthLogout()
		case "status":
			return r.doAuthStatus()
		case "whoami":
			return r.doAuthWhoAmI()
		default:
			r.fail("usage: tada auth <login|logout|status|whoami>")
			return 2
		}
	}

	r.fail("unknown subcommand: " + cmd)
	fmt.Fprintln(opt.Stderr)
	PrintHelp(opt.Stderr)
	return 2
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `tada - a tiny to-do client

Usage:
  tada [flags] [subcommand] [args]

Subcommands:
  ui                 Interactive client (default)
  ls                 List items
  add <body...>      Add a new item (body can be multiple words)
  done <index>       Toggle done for item at 1-based index
  rm <index>         Remove item at 1-based index
  auth <login|logout|status|whoami>   Session token

Flags:
  -api URL  -storage FILE  -templates DIR  -theme NAME
  -log-level LEVEL  -log-file FILE  -show-errors  -group

Examples:
  tada auth login ann
  tada add "Buy milk"
  tada ls
  tada done 2
  tada rm 3
`)
}

func (r *runner) ok(msg string)   { ui.OK(r.opt.Stdout, msg) }
func (r *runner) fail(msg string) { ui.Fail(r.opt.Stderr, msg) }

// failRequest reports a failed call, with a hint when the token is the problem.
func (r *runner) failRequest(op string, err error) int {
	r.log.Error("request failed", "op", op, "err", err)
	r.fail(op + ": " + err.Error())
	if api.IsUnauthorized(err) {
		ui.Hint(r.opt.Stderr, "Hint: run `tada auth login`")
	}
	return 1
}

func (r *runner) index(cmd string, a []string) (int, int) {
	if len(a) != 1 {
		r.fail("usage: tada " + cmd + " <index>")
		return 0, 2
	}
	n, err := strconv.Atoi(a[0])
	if err != nil {
		r.fail(cmd + ": not a number: " + a[0])
		return 0, 2
	}
	return n, 0
}

// -------------- subcommand impls ----------------

func (r *runner) doUI(ctx context.Context) int {
	theme := ui.Current()
	store, err := templates.Load(r.cfg.TemplatesDir, theme)
	if err != nil {
		r.fail(err.Error())
		return 1
	}
	state := &app.State{
		Client:     r.client,
		Session:    r.session,
		Templates:  store,
		Theme:      theme,
		Logger:     r.log.Logger,
		ShowErrors: r.cfg.ShowErrors,
		Context:    ctx,
	}
	if err := app.Run(ctx, state); err != nil {
		r.fail("ui: " + err.Error())
		return 1
	}
	return 0
}

func (r *runner) doList(ctx context.Context) int {
	items, err := r.client.ListTodos(ctx)
	if err != nil {
		return r.failRequest("ls", err)
	}

	t := ui.Current()
	d, p := model.Stats(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), d,
		t.Pending.Render(t.SymPending), p,
		t.Accent.Render("Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, t.Muted.Render(ui.ProgressBar(d, d+p, 28)))
	lines = append(lines, "")

	if r.cfg.Group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items, 1)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Muted.Render("Tip: add with `tada add \"Buy milk\"`"))
	fmt.Fprintln(r.opt.Stdout, ui.Panel(lines))
	return 0
}

func (r *runner) doAdd(ctx context.Context, body string) int {
	if _, err := r.client.CreateTodo(ctx, body); err != nil {
		return r.failRequest("add", err)
	}
	r.ok("added")
	return 0
}

// pick fetches the list and resolves a 1-based index against it.
func (r *runner) pick(ctx context.Context, op string, userIndex int) (model.Todo, int) {
	items, err := r.client.ListTodos(ctx)
	if err != nil {
		return model.Todo{}, r.failRequest(op, err)
	}
	if userIndex < 1 || userIndex > len(items) {
		r.fail(fmt.Sprintf("index out of range: have %d, got %d", len(items), userIndex))
		ui.Hint(r.opt.Stderr, "Hint: run `tada ls` to see valid indexes")
		return model.Todo{}, 2
	}
	return items[userIndex-1], 0
}

func (r *runner) doToggle(ctx context.Context, userIndex int) int {
	td, code := r.pick(ctx, "done", userIndex)
	if code != 0 {
		return code
	}
	if _, err := r.client.SetComplete(ctx, td.ID, !td.Complete); err != nil {
		return r.failRequest("done", err)
	}
	r.ok("toggled")
	return 0
}

func (r *runner) doRemove(ctx context.Context, userIndex int) int {
	td, code := r.pick(ctx, "rm", userIndex)
	if code != 0 {
		return code
	}
	if err := r.client.DeleteTodo(ctx, td.ID); err != nil {
		return r.failRequest("rm", err)
	}
	r.ok("removed")
	return 0
}

// -------------- rendering helpers --------------

func flatLines(items []model.Todo, start int) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{t.Muted.Render("no items")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		idx := fmt.Sprintf("%2d.", start+i)
		box := t.Muted.Render(t.BoxUnchecked)
		body := model.Truncate(it.Body, 80)
		if it.Complete {
			box = t.Success.Render(t.BoxChecked)
			body = t.Done.Render(body)
		}
		out = append(out, fmt.Sprintf("%s %s %s", t.Muted.Render(idx), box, body))
	}
	return out
}

// groupLines keeps server order inside each group; indexes stay those of
// the flat list so `done`/`rm` still line up.
func groupLines(items []model.Todo) []string {
	t := ui.Current()
	var pend, done []string
	for i, it := range items {
		line := flatLines([]model.Todo{it}, i+1)[0]
		if it.Complete {
			done = append(done, line)
		} else {
			pend = append(pend, line)
		}
	}
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, pend...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, done...)
	}
	return lines
}
