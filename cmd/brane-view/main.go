package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"brane-view/internal/logger"
)

var log = logger.Named("cli")

const usage = `usage: brane-view [-c key=value] [--config path] [--plain] [--log path] <command>

commands:
  watch <invocation-uuid>   poll brane-api and render the invocation (default)
  replay [--file path]      render fragments from a file or stdin
  decode                    decode one tagged value from stdin
  project [--id uuid]       print the presentation model of a fragment as JSON
  check                     check that brane-api is reachable
  config set key=value      persist a config value
  config show               print the effective config
`

func main() {
	root, rest, err := parseRootArgs(os.Args[1:])
	if err != nil {
		fmt.Fprint(os.Stderr, usage)
		log.Fatalf("parse args: %v", err)
	}
	logger.Configure(root.logLevel)
	if logFile, _, err := logger.SetupFile(root.logPath); err != nil {
		log.Warnf("failed to initialize log file (%s): %v", root.logPath, err)
		logger.Discard()
	} else {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, root, rest, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		stop()
		log.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "brane-view: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid usage")

func run(ctx context.Context, root rootArgs, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command or invocation id", errUsage)
	}
	switch args[0] {
	case "watch":
		return runWatch(ctx, root, args[1:], stdout)
	case "replay":
		return runReplay(ctx, root, args[1:], stdin, stdout)
	case "decode":
		return runDecode(stdin, stdout)
	case "project":
		return runProject(ctx, root, args[1:], stdin, stdout)
	case "check":
		return runCheck(ctx, root, stdout)
	case "config":
		return runConfig(root, args[1:], stdout)
	case "help", "-h", "--help":
		_, err := fmt.Fprint(stdout, usage)
		return err
	}
	return runWatch(ctx, root, args, stdout)
}
