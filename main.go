package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vendelo/parcelbridge/internal/batch"
	"github.com/vendelo/parcelbridge/internal/server"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "parcelbridge",
	Short:   "Parcelbridge - order export bridge to the Parcelway shipping platform",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the export HTTP server",
	RunE:  runServe,
}

var exportCmd = &cobra.Command{
	Use:   "export [order-id...]",
	Short: "Run one export batch from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("mode", "", "export mode: shipments or pps")
	exportCmd.Flags().String("package-type", "", "package type override: package, mailbox, letter, digital_stamp or default")
	exportCmd.Flags().String("label-format", "", "label format: A4 or A6")
	exportCmd.Flags().Bool("concept", false, "create concepts only, skip label rendering")
	rootCmd.AddCommand(serveCmd, exportCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	app.Logger.Info("Starting Parcelbridge",
		zap.Int("port", app.Config.Port),
		zap.String("version", app.Config.Version),
	)

	srv := server.New(server.Config{Port: app.Config.Port}, app.Orchestrator, app.Logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	orderIDs := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid order id %q", arg)
		}
		orderIDs = append(orderIDs, id)
	}

	mode, _ := cmd.Flags().GetString("mode")
	packageType, _ := cmd.Flags().GetString("package-type")
	labelFormat, _ := cmd.Flags().GetString("label-format")
	concept, _ := cmd.Flags().GetBool("concept")

	req := batch.Request{
		StoreID:  defaultStoreID,
		OrderIDs: orderIDs,
		Mode:     mode,
	}
	req.Options.PackageType = packageType
	req.Options.LabelFormat = labelFormatFromString(labelFormat)
	if concept {
		req.Options.RequestType = "concept"
	}

	result, runErr := app.Orchestrator.Run(ctx, req)

	out := struct {
		BatchID  string   `json:"batchId"`
		Stage    string   `json:"stage"`
		Warnings []string `json:"warnings,omitempty"`
		Labels   int      `json:"labelBytes"`
	}{
		BatchID:  result.BatchID,
		Stage:    result.Stage.String(),
		Warnings: result.Warnings,
		Labels:   len(result.Label),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(out)

	return runErr
}
