package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/delivery/consumer"
	delivery "golang-signal-scryper/internal/scanner/delivery/http"
	"golang-signal-scryper/internal/scanner/service"
	"golang-signal-scryper/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	scanHandle string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the scanner service: HTTP API, scheduler and scan request consumer",
	Run:   runServe,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Runs one scan cycle, or scans a single account with --handle, and prints the result",
	Run:   runScan,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(ctx, configPath)
	defer a.Close()
	a.logger.Info("Starting Scanner Service", logger.StringField("name", a.cfg.App.Name))

	scheduler := service.NewSchedulerService(a.scanService, a.configService, a.logger)
	if err := scheduler.Start(ctx); err != nil {
		a.logger.Fatal("Failed to start scheduler", logger.ErrorField(err))
	}

	redisConsumer := consumer.NewRedisConsumer(a.cfg, a.requestService, a.logger)
	redisConsumer.Start(ctx)

	e := delivery.NewRouter(
		delivery.NewAccountHandler(a.accountService, a.logger),
		delivery.NewConfigHandler(a.configService, a.logger),
		delivery.NewScanHandler(a.scanService, a.requestService, a.logger),
	)

	go func() {
		addr := fmt.Sprintf("%s:%d", a.cfg.API.Host, a.cfg.API.Port)
		a.logger.Info("HTTP server starting", logger.StringField("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
	redisConsumer.Stop()
	scheduler.Stop()

	a.logger.Info("Server exiting")
}

func runScan(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(ctx, configPath)
	defer a.Close()

	var (
		result interface{}
		err    error
	)
	if scanHandle != "" {
		result, err = a.scanService.ScanHandle(ctx, scanHandle)
	} else {
		result, err = a.scanService.RunCycle(ctx, entity.CycleTriggerManual)
	}
	if err != nil {
		a.logger.Error("Scan failed", logger.ErrorField(err))
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
}

// @title Signal Scanner API
// @version 1.0
// @description Monitored accounts, scan config and scan cycles of the signal scanner.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "scanner-service"}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-scanner.yaml", "Path to the configuration file")
	scanCmd.Flags().StringVar(&scanHandle, "handle", "", "Scan only this account")

	rootCmd.AddCommand(serveCmd, scanCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing scanner-service CLI: %s\n", err)
		os.Exit(1)
	}
}
