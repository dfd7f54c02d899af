package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/condadist/condadist/cmd"
)

// Statically-populated build metadata set by the release build.
var date, vers, hash string

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
		<-sigs // second sigint/sigterm is treated as sigkill
		os.Exit(137)
	}()

	cfg := cmd.RootCommandConfig{
		Name:    "condadist",
		Version: cmd.Version{Date: date, Vers: vers, Hash: hash},
	}

	if err := cmd.NewRootCmd(cfg).ExecuteContext(ctx); err != nil {
		cmd.PrintError(err)
		if ctx.Err() != nil {
			os.Exit(130)
		}
		os.Exit(cmd.ExitCode(err))
	}
}
