package main

import (
	"fmt"
	"time"

	"whereiam/internal/snapshot"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	snapshotURL     string
	snapshotOut     string
	snapshotWidth   int
	snapshotHeight  int
	snapshotTimeout time.Duration
	snapshotGlobe   bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture a PNG of a running page",
	Long: `snapshot opens the page in headless Chrome and writes a PNG screenshot.
It needs a Chrome or Chromium binary on the PATH.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := snapshotURL
		if url == "" {
			url = fmt.Sprintf("http://localhost:%s/", cfg.Port)
		}

		png, err := snapshot.NewCapturer(logger).Capture(cmd.Context(), url, snapshot.Options{
			Width:        snapshotWidth,
			Height:       snapshotHeight,
			Timeout:      snapshotTimeout,
			WaitForGlobe: snapshotGlobe,
		})
		if err != nil {
			return err
		}
		if err := snapshot.WriteFile(snapshotOut, png); err != nil {
			return err
		}
		logger.Info("Snapshot written", zap.String("path", snapshotOut), zap.Int("bytes", len(png)))
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotURL, "url", "", "Page to capture (default: the local server)")
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "whereiam.png", "Output file")
	snapshotCmd.Flags().IntVar(&snapshotWidth, "width", snapshot.DefaultWidth, "Viewport width")
	snapshotCmd.Flags().IntVar(&snapshotHeight, "height", snapshot.DefaultHeight, "Viewport height")
	snapshotCmd.Flags().DurationVar(&snapshotTimeout, "timeout", snapshot.DefaultTimeout, "Capture timeout")
	snapshotCmd.Flags().BoolVar(&snapshotGlobe, "wait-globe", true, "Wait for the globe canvas before capturing")
}
