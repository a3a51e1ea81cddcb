package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/prodx0x/minderlink/internal/app"
	"github.com/prodx0x/minderlink/internal/config"
	"github.com/prodx0x/minderlink/internal/logging"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "-h", "--help", "help":
			fmt.Println(app.Usage)
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	code := run(args, cfg, log)
	_ = log.Sync()
	os.Exit(code)
}

func run(args []string, cfg config.Runtime, log *zap.Logger) int {
	// Dialog commands wait on the user, so they only stop on a signal.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !interactive(args) {
		timeout := cfg.Timeout + 5*time.Second
		if timeout < 10*time.Second {
			timeout = 10 * time.Second
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := app.Run(ctx, args, cfg, log, os.Stdin, os.Stdout); err != nil {
		log.Debug("command failed", zap.Strings("args", args), zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return 0
}

func interactive(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "select-filter", "join-next", "join-item", "reveal":
		return true
	default:
		return false
	}
}
