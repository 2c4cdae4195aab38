// Command kifreasoner is the composition root: it wires internal/config,
// pkg/kb, pkg/events and pkg/reasoner together and exposes a minimal
// line-oriented front end for exercising the engine from a terminal. The
// richer UI, LLM-translation client and WebSocket transport described in
// SPEC_FULL.md §6 are external collaborators; this binary only needs to
// prove the core wiring works end to end.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gitrdm/kifreasoner/internal/config"
	"github.com/gitrdm/kifreasoner/internal/diag"
	"github.com/gitrdm/kifreasoner/pkg/events"
	"github.com/gitrdm/kifreasoner/pkg/kb"
	"github.com/gitrdm/kifreasoner/pkg/reasoner"
	"github.com/gitrdm/kifreasoner/pkg/term"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "optional YAML tunables file")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	diag.Logger.SetLevel(level)
	diag.Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kifreasoner: %v\n", err)
		os.Exit(1)
	}

	disp := events.New()
	store := kb.New(kb.Options{
		Capacity:        cfg.KBCapacity,
		EvictionEnabled: true,
		Sink:            disp,
	})
	engine := reasoner.New(reasoner.Options{
		Config:         cfg,
		KB:             store,
		Dispatcher:     disp,
		BroadcastInput: false,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "kifreasoner: %v\n", err)
		os.Exit(1)
	}
	defer engine.Stop(context.Background())

	runREPL(ctx, engine)
}

// runREPL reads one command per line from stdin until EOF, ctx
// cancellation, or a "quit" command.
func runREPL(ctx context.Context, engine *reasoner.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		fmt.Print("kifreasoner> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !dispatchLine(engine, line) {
			return
		}
	}
}

// dispatchLine executes one REPL command, returning false when the REPL
// should stop.
func dispatchLine(engine *reasoner.Engine, line string) bool {
	cmd, rest := splitCommand(line)
	switch cmd {
	case "quit", "exit":
		return false
	case "pause":
		engine.Pause()
	case "resume":
		engine.Resume()
	case "status":
		fmt.Println(engine.Status())
	case "assert":
		kif, priority := splitTrailingNumber(rest)
		t, err := parseOneTerm(kif)
		if err != nil {
			fmt.Println("parse error:", err)
			return true
		}
		if err := engine.SubmitInput(t, priority, ""); err != nil {
			fmt.Println("rejected:", err)
		}
	case "rule":
		t, err := parseOneTerm(rest)
		if err != nil {
			fmt.Println("parse error:", err)
			return true
		}
		lst, ok := t.(*term.List)
		if !ok {
			fmt.Println("rule form must be a list")
			return true
		}
		if err := engine.SubmitRule(lst); err != nil {
			fmt.Println("rejected:", err)
		}
	case "retract-rule":
		t, err := parseOneTerm(rest)
		if err != nil {
			fmt.Println("parse error:", err)
			return true
		}
		lst, ok := t.(*term.List)
		if !ok {
			fmt.Println("rule form must be a list")
			return true
		}
		fmt.Println("removed:", engine.RetractRule(lst))
	case "retract":
		fmt.Println("removed:", engine.RetractByID(strings.TrimSpace(rest)))
	case "retract-note":
		fmt.Println("removed:", engine.RetractByNote(strings.TrimSpace(rest)))
	case "show":
		id := strings.TrimSpace(rest)
		a, ok := engine.KB().Get(id)
		if !ok {
			fmt.Println("no such assertion")
			return true
		}
		fmt.Println(a.Kif.String())
	default:
		fmt.Printf("unknown command %q\n", cmd)
	}
	return true
}

func splitCommand(line string) (cmd, rest string) {
	parts := strings.SplitN(line, " ", 2)
	cmd = parts[0]
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return cmd, rest
}

// splitTrailingNumber peels an optional trailing numeric priority off an
// "assert" command's argument, defaulting to 1.0 when absent.
func splitTrailingNumber(rest string) (kif string, priority float64) {
	rest = strings.TrimSpace(rest)
	idx := strings.LastIndex(rest, " ")
	if idx < 0 {
		return rest, 1.0
	}
	if p, err := strconv.ParseFloat(rest[idx+1:], 64); err == nil {
		return strings.TrimSpace(rest[:idx]), p
	}
	return rest, 1.0
}

func parseOneTerm(src string) (term.Term, error) {
	terms, _, err := term.Parse(src)
	if err != nil {
		return nil, err
	}
	if len(terms) != 1 {
		return nil, fmt.Errorf("expected exactly one term, got %d", len(terms))
	}
	return terms[0], nil
}
