package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetops/dispatchd/app"
	"github.com/fleetops/dispatchd/config"
	"github.com/fleetops/dispatchd/core/dispatch"
	"github.com/fleetops/dispatchd/infra/logger"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [file]",
	Short: "Inject one job-feed payload from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE:  reconcileOnce,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func reconcileOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// The one-shot injector never needs the feed subscriber.
	cfg.MQTT.Enabled = false

	var data []byte
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	payload, err := dispatch.ParseJobFeedPayload(data)
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	logg := logger.New("reconcile-command")
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	res, err := svc.Engine.Reconcile(runCtx, payload, nil, "cli.reconcile")
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", payload.JobCode, err)
	}
	action := "updated"
	if res.Created {
		action = "created"
	}
	logg.Infof("job %s %s (%s)", res.Job.JobCode, action, res.Job.ID)
	return nil
}
