package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/wcs/app"
	"github.com/kilianp07/wcs/config"
	"github.com/kilianp07/wcs/core/orchestrator"
	"github.com/kilianp07/wcs/infra/logger"
)

var (
	completeCancelled bool
	completeActual    string
)

var completeCmd = &cobra.Command{
	Use:   "complete <task-code>",
	Short: "Report a task completion or cancellation",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplete,
}

func init() {
	completeCmd.Flags().BoolVar(&completeCancelled, "cancelled", false, "report a cancellation instead of a completion")
	completeCmd.Flags().StringVar(&completeActual, "actual-location", "", "location code the vehicle actually dropped at")
	rootCmd.AddCommand(completeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	info := orchestrator.CompletionInfo{
		Cancelled:          completeCancelled,
		ActualLocationCode: completeActual,
	}
	if err := svc.Orchestrator.HandleCompletion(ctx, info, args[0]); err != nil {
		return fmt.Errorf("completion failed: %w", err)
	}
	logger.New("complete-command").Infof("task %s closed", args[0])
	return nil
}
