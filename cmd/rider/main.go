package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/config"
)

const (
	serviceName = "rider"
	version     = "1.0.0"
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"search": {"look up pickup and dropoff suggestions", runSearch},
	"types":  {"list ride types by category", runTypes},
	"book":   {"request a ride between two places", runBook},
	"bids":   {"watch driver bids and pay for one", runBids},
	"track":  {"follow a ride until it ends", runTrack},
	"cancel": {"quote and cancel a ride", runCancel},
	"finish": {"rate, tip and finish a ride", runFinish},
	"report": {"report a driver", runReport},
	"chat":   {"chat with the driver", runChat},
	"serve":  {"serve the payment return URL", runServe},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		usage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer a.close()

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintln(stderr, common.UserMessage(err))
		a.log.Debug(err.Error())
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s <command> [flags]\n\ncommands:\n", serviceName)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
}
