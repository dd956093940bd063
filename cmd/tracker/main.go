// Command tracker runs one evening or morning pass of the FnO tracker.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/fno_tracker/internal/config"
	"github.com/eddiefleurent/fno_tracker/internal/logging"
	"github.com/eddiefleurent/fno_tracker/internal/models"
	"github.com/eddiefleurent/fno_tracker/internal/pipeline"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// runFunc is swapped in tests.
var runFunc = pipeline.Execute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr, time.Now())
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer, now time.Time) (code int) {
	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)
	fs.SetOutput(stderr)
	modeFlag := fs.String("mode", string(models.ModeEvening), "Run mode: evening or morning")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	mode, err := models.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitError
	}
	logger := logging.New(cfg.Environment)

	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("Run panicked")
			code = exitError
		}
	}()

	res, err := runFunc(ctx, cfg, mode, now, logger)
	if err != nil {
		logger.WithError(err).Error("Run failed")
		return exitError
	}
	for _, w := range res.Warnings {
		logger.Warn(w)
	}
	logger.Infof("📝 Report saved as %s", res.ReportPath)
	return exitOK
}
