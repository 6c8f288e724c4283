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
	"github.com/kilianp07/wcs/core/shuttle"
	"github.com/kilianp07/wcs/infra/logger"
)

var (
	reqLocation string
	reqPallet   string
	reqHeight   float64
	reqWeight   float64
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Inject a movement request",
	RunE:  runRequest,
}

func init() {
	requestCmd.Flags().StringVar(&reqLocation, "location", "", "location code holding the pallet")
	requestCmd.Flags().StringVar(&reqPallet, "pallet", "", "pallet code")
	requestCmd.Flags().Float64Var(&reqHeight, "height", 0, "measured pallet height")
	requestCmd.Flags().Float64Var(&reqWeight, "weight", 0, "measured pallet weight")
	rootCmd.AddCommand(requestCmd)
}

func runRequest(cmd *cobra.Command, args []string) error {
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

	logg := logger.New("request-command")
	if err := svc.Session.Connect(ctx); err != nil {
		return fmt.Errorf("connect shuttle: %w", err)
	}
	if err := svc.Session.Send(ctx, shuttle.Inquire()); err != nil {
		return fmt.Errorf("inquire: %w", err)
	}
	if _, err := svc.Session.WaitForAck(ctx); err != nil {
		return fmt.Errorf("inquire ack: %w", err)
	}

	task, err := svc.Orchestrator.HandleRequest(ctx, orchestrator.RequestInfo{
		LocationCode: reqLocation,
		PalletCode:   reqPallet,
		Height:       reqHeight,
		Weight:       reqWeight,
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	logg.Infof("task %s created, destination location %d", task.Code, task.EndLocationID)
	return nil
}
