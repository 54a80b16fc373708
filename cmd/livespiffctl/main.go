package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/livespiff/livespiffd/clients"
	"github.com/livespiff/livespiffd/internal/config"
	"github.com/livespiff/livespiffd/internal/run"
)

const usage = `usage: livespiffctl [-daemon ADDR] <command>

commands:
  status        show timer state, elapsed time and split progress
  split         start the timer, or cross the next split
  pause         pause or resume the timer
  reset         reset the timer to idle
  load <file>   load a run definition (bare names resolve in the runs dir)
  save <file>   save the current run definition
  run           print the current run as JSON
`

func main() {
	daemonAddr := flag.String("daemon", "unix://"+config.DefaultSocketPath(), "daemon endpoint")
	timeout := flag.Duration("timeout", 2*time.Second, "per-call timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client, err := clients.NewTimerClient(*daemonAddr, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "livespiffctl:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := dispatch(ctx, client, args); err != nil {
		if errors.Is(err, clients.ErrNotConnected) {
			// Same contract as the graphical front-end: an absent daemon is
			// not an error condition worth a stack of diagnostics.
			fmt.Println("daemon not running")
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "livespiffctl:", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, client *clients.TimerClient, args []string) error {
	switch args[0] {
	case "status":
		return printStatus(ctx, client)
	case "split":
		return client.StartOrSplit(ctx)
	case "pause":
		return client.TogglePause(ctx)
	case "reset":
		return client.Reset(ctx)
	case "load":
		return loadRun(ctx, client, args[1:])
	case "save":
		return saveRun(ctx, client, args[1:])
	case "run":
		doc, err := client.RunJSON(ctx)
		if err != nil {
			return err
		}
		fmt.Println(doc)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printStatus(ctx context.Context, client *clients.TimerClient) error {
	state, err := client.State(ctx)
	if err != nil {
		return err
	}
	elapsed, err := client.ElapsedMs(ctx)
	if err != nil {
		return err
	}
	index, err := client.CurrentSplit(ctx)
	if err != nil {
		return err
	}
	count, err := client.SplitCount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s  split %d/%d\n", state, formatMs(elapsed), index, count)
	return nil
}

func loadRun(ctx context.Context, client *clients.TimerClient, args []string) error {
	if len(args) != 1 {
		return errors.New("load needs exactly one file argument")
	}
	path, err := resolveRunPath(args[0])
	if err != nil {
		return err
	}
	ok, msg, err := client.LoadRun(ctx, path)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	if !ok {
		os.Exit(1)
	}
	return nil
}

func saveRun(ctx context.Context, client *clients.TimerClient, args []string) error {
	if len(args) != 1 {
		return errors.New("save needs exactly one file argument")
	}
	path, err := resolveRunPath(args[0])
	if err != nil {
		return err
	}
	ok, msg, err := client.SaveRun(ctx, path)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	if !ok {
		os.Exit(1)
	}
	return nil
}

// resolveRunPath leaves explicit paths alone and puts bare file names into the
// user's runs directory.
func resolveRunPath(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) || name == "." || name == ".." {
		return name, nil
	}
	dir, err := run.RunsDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve runs directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	cs := (ms % 1000) / 10
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
	}
	return fmt.Sprintf("%d:%02d.%02d", m, s, cs)
}
