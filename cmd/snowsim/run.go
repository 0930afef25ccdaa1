// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luxfi/snowsim/output"
	"github.com/luxfi/snowsim/runner"
	"github.com/luxfi/snowsim/settings"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation from a settings document",
		RunE:  runRun,
	}
	cmd.Flags().String("input-settings", "", "path to the JSON simulation settings document")
	cmd.Flags().String("output-file", "snowsim-output", "output artifact path (extension is rewritten to match --output-format)")
	cmd.Flags().String("output-format", "json", "output format: json, csv, or parquet (parquet is recognized but not yet implemented)")
	_ = cmd.MarkFlagRequired("input-settings")
	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	inputPath, _ := cmd.Flags().GetString("input-settings")
	outputPath, _ := cmd.Flags().GetString("output-file")
	formatFlag, _ := cmd.Flags().GetString("output-format")

	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("snowsim: reading settings: %w", err)
	}
	s, err := settings.Load(data)
	if err != nil {
		return err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("snowsim: logger init: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	metrics, err := runner.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("snowsim: metrics init: %w", err)
	}

	r, err := runner.New(s, log, metrics)
	if err != nil {
		return err
	}

	records, err := r.Run()
	if err != nil {
		return fmt.Errorf("snowsim: run: %w", err)
	}

	outputPath = rewriteExtension(outputPath, format)
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("snowsim: opening output file: %w", err)
	}
	defer f.Close()

	w, err := output.NewWriter(format, f)
	if err != nil {
		return err
	}
	if err := w.Write(records); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("snowsim: closing output: %w", err)
	}

	log.Info("snowsim: run complete", zap.Int("records", len(records)), zap.String("output", outputPath))
	return nil
}

func rewriteExtension(path string, format output.Format) string {
	ext := "." + format.String()
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	return trimmed + ext
}
