package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rileyhilliard/zenctl/internal/config"
	"github.com/rileyhilliard/zenctl/internal/console"
	"github.com/rileyhilliard/zenctl/internal/daemons"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/logger"
	"github.com/rileyhilliard/zenctl/internal/rpc"
	"github.com/rileyhilliard/zenctl/internal/ui"
	"github.com/rileyhilliard/zenctl/internal/util"
	"golang.org/x/term"
)

// session is what every console-facing command needs: the resolved config
// and the routers wired to one client.
type session struct {
	cfg    *config.Config
	path   string
	client *rpc.Client
	svc    console.Services
	log    logger.Logger
}

// loadSession resolves and validates the config, then connects the routers.
// out is the writer color detection is done against.
func loadSession(out io.Writer) (*session, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	ui.ConfigureColor(colorMode(cfg.Output.Color), out)

	client := rpc.NewClientFromConfig(cfg, logger.NewEnvLogger("rpc"))
	return &session{
		cfg:    cfg,
		path:   path,
		client: client,
		svc:    console.NewServices(client),
		log:    logger.NewEnvLogger("zenctl"),
	}, nil
}

// tree fetches the daemon tree from the console.
func (s *session) tree(ctx context.Context) (*daemons.Tree, error) {
	nodes, err := s.svc.Apps.GetTree(ctx, s.cfg.RootNode)
	if err != nil {
		return nil, err
	}
	t := daemons.NewTree(s.cfg.RootNode)
	stats := t.Reconcile(nodes)
	s.log.Debug("loaded daemon tree: %s", stats)
	return t, nil
}

func (s *session) controller() *daemons.Controller {
	return daemons.NewController(s.svc.Apps, s.svc.Devices, s.log)
}

// collectors lists the collectors offered for discovery. The daemon tree is
// asked first; the configured list covers consoles whose tree can't be read.
func (s *session) collectors(ctx context.Context) []string {
	t, err := s.tree(ctx)
	if err == nil {
		if names := t.Collectors(); len(names) > 0 {
			return names
		}
	} else {
		s.log.Debug("falling back to configured collectors: %s", errors.Short(err))
	}
	return s.cfg.Collectors
}

// resolveRows finds the rows named by args. Each arg may be a uid, an id or
// a daemon name.
func resolveRows(t *daemons.Tree, args []string) ([]daemons.Daemon, error) {
	rows := t.Rows()
	out := make([]daemons.Daemon, 0, len(args))
	seen := make(map[string]bool)
	for _, arg := range args {
		d, ok := findRow(rows, arg)
		if !ok {
			return nil, errors.New(errors.ErrDaemon,
				fmt.Sprintf("No daemon with uid, id or name '%s'", arg),
				lookupHint(rows, arg))
		}
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}
	return out, nil
}

func findRow(rows []daemons.Row, arg string) (daemons.Daemon, bool) {
	for _, match := range []func(daemons.Row) bool{
		func(r daemons.Row) bool { return r.UID == arg },
		func(r daemons.Row) bool { return r.ID == arg },
		func(r daemons.Row) bool { return r.Name == arg },
	} {
		for _, r := range rows {
			if match(r) {
				return r.Daemon, true
			}
		}
	}
	return daemons.Daemon{}, false
}

func lookupHint(rows []daemons.Row, arg string) string {
	candidates := make([]string, 0, len(rows))
	for _, r := range rows {
		candidates = append(candidates, r.Name)
	}
	if near := util.SuggestSimilar(arg, candidates, 2); len(near) > 0 {
		return fmt.Sprintf("Did you mean %s?", util.JoinOrNone(near))
	}
	return "Run 'zenctl daemons list' to see what the console knows about."
}

func names(rows []daemons.Daemon) string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return strings.Join(out, ", ")
}

// stdinIsTerminal reports whether prompts can be shown. Tests override it.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// interactive reports whether the command may prompt.
func interactive() bool {
	return !machineMode && stdinIsTerminal()
}

func printSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, ui.SuccessStyle().Render(ui.SymbolSuccess)+" "+msg)
}

func printWarning(w io.Writer, msg string) {
	fmt.Fprintln(w, ui.WarningStyle().Render(ui.SymbolWarning)+" "+msg)
}
