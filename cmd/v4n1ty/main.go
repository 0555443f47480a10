package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/microchipgnu/v4n1ty/internal/config"
	cryptopkg "github.com/microchipgnu/v4n1ty/internal/crypto"
	"github.com/microchipgnu/v4n1ty/internal/estimate"
	logpkg "github.com/microchipgnu/v4n1ty/internal/logger"
	"github.com/microchipgnu/v4n1ty/internal/reporter"
	"github.com/microchipgnu/v4n1ty/pkg/generator"
	"github.com/microchipgnu/v4n1ty/pkg/worker"
)

var (
	cfg      = config.NewSearchConfig()
	modeFlag string
	rateFlag float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "v4n1ty <target>",
		Short: "Vanity Ethereum address generator",
		Long: `v4n1ty brute-force searches for an Ethereum keypair whose address
contains a chosen hex pattern, using all CPU cores by default.

Examples:
  v4n1ty dead
  v4n1ty beef --mode end
  v4n1ty cafe --mode anywhere
  v4n1ty abc --mode position --position 4
  v4n1ty DeaD --case-sensitive`,
		Args:          cobra.ExactArgs(1),
		RunE:          runSearch,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVarP(&modeFlag, "mode", "m", "start", "where the target must appear: start, end, anywhere, position")
	rootCmd.Flags().IntVarP(&cfg.Position, "position", "P", -1, "hex offset into the address body for position mode")
	rootCmd.Flags().BoolVarP(&cfg.CaseSensitive, "case-sensitive", "c", false, "also match the EIP-55 checksum casing")
	rootCmd.Flags().IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "number of worker goroutines")
	rootCmd.Flags().StringVarP(&cfg.LogFile, "log-file", "l", "", "append progress lines to this file")
	rootCmd.Flags().IntVarP(&cfg.LogInterval, "log-interval", "i", cfg.LogInterval, "seconds between file log lines")

	estimateCmd := &cobra.Command{
		Use:   "estimate <target>",
		Short: "Estimate the difficulty of a search without running it",
		Args:  cobra.ExactArgs(1),
		RunE:  runEstimate,
	}
	estimateCmd.Flags().StringVarP(&modeFlag, "mode", "m", "start", "where the target must appear: start, end, anywhere, position")
	estimateCmd.Flags().IntVarP(&cfg.Position, "position", "P", -1, "hex offset into the address body for position mode")
	estimateCmd.Flags().BoolVarP(&cfg.CaseSensitive, "case-sensitive", "c", false, "also match the EIP-55 checksum casing")
	estimateCmd.Flags().Float64Var(&rateFlag, "rate", 50000, "assumed attempts per second for the time projection")
	rootCmd.AddCommand(estimateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildConfig(args []string) error {
	cfg.Target = args[0]
	mode, err := config.ParseMode(modeFlag)
	if err != nil {
		return err
	}
	cfg.Mode = mode
	return cfg.Validate()
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := buildConfig(args); err != nil {
		return err
	}

	var fileLog *logpkg.Logger
	if cfg.LogFile != "" {
		var err error
		fileLog, err = logpkg.NewFile(cfg.LogFile)
		if err != nil {
			return err
		}
		defer fileLog.Close()
	}

	gen, err := generator.New(cfg, func() worker.Source { return cryptopkg.NewSource() })
	if err != nil {
		return err
	}

	rep := reporter.New(cfg, fileLog)
	rep.Banner()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := gen.Start(); err != nil {
		return err
	}
	if fileLog != nil {
		fileLog.Printf("search started: %s, %d workers", cfg.Description(), cfg.Workers)
	}

	// Started after Start so Done() is this run's channel; buffered
	// events mean nothing emitted in between is lost.
	repDone := make(chan struct{})
	go func() {
		defer close(repDone)
		rep.Run(gen.Events(), gen.Done(), gen.Stop)
	}()

	select {
	case <-sigChan:
		fmt.Fprintln(os.Stderr, "\nreceived interrupt, stopping workers...")
		gen.Stop()
		<-gen.Done()
	case <-gen.Done():
	}
	<-repDone

	if result := gen.Result(); result != nil {
		// Cross-check through the reference derivation before the user
		// walks away with the key.
		addr, err := deriveFromHex(result.PrivateKey)
		if err != nil {
			return fmt.Errorf("derivation cross-check: %w", err)
		}
		if addr != result.Address {
			return fmt.Errorf("derivation cross-check failed: %s != %s", addr, result.Address)
		}
		return nil
	}
	if rep.Failed() {
		return fmt.Errorf("search aborted: all workers failed")
	}

	stats := gen.Stats()
	fmt.Printf("stopped after %s attempts in %s\n",
		reporter.FormatCount(stats.TotalAttempts), stats.Elapsed.Round(time.Second))
	return nil
}

func runEstimate(cmd *cobra.Command, args []string) error {
	if err := buildConfig(args); err != nil {
		return err
	}

	est := estimate.ForConfig(cfg)
	p50 := est.AttemptsForProbability(0.5)
	p90 := est.AttemptsForProbability(0.9)

	color.New(color.Bold).Printf("difficulty for %s\n", cfg.Description())
	fmt.Printf("  1 match per:   %s addresses\n", reporter.FormatBigInt(est.Difficulty))
	fmt.Printf("  50%% chance by: %s attempts\n", reporter.FormatBigInt(p50))
	fmt.Printf("  90%% chance by: %s attempts\n", reporter.FormatBigInt(p90))
	if rateFlag > 0 {
		fmt.Printf("  at %.0f addr/s: %s to 50%%, %s to 90%%\n",
			rateFlag,
			reporter.FormatDuration(estimate.ETAAtRate(p50, rateFlag)),
			reporter.FormatDuration(estimate.ETAAtRate(p90, rateFlag)))
	}
	return nil
}

func deriveFromHex(keyHex string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("decode private key: %w", err)
	}
	if len(raw) != cryptopkg.PrivateKeyLen {
		return "", fmt.Errorf("private key must be %d bytes, got %d", cryptopkg.PrivateKeyLen, len(raw))
	}
	var key [cryptopkg.PrivateKeyLen]byte
	copy(key[:], raw)
	return cryptopkg.DeriveAddress(key)
}
