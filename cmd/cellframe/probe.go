package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junsooki/cellframe/internal/capture"
)

var probeX, probeY int

var probeFlags = map[string]string{
	"http-server-mode": "http-server-mode",
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print the text and background colours at a surface pixel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(changedFlags(cmd, probeFlags))
		if err != nil {
			return err
		}
		defer logger.Sync()

		builder, err := newBuilder(cfg, nil, logger)
		if err != nil {
			return err
		}
		if err := builder.Screenshots(cmd.Context()); err != nil {
			return err
		}
		fg, fgOK := builder.ForegroundPixelAt(probeX, probeY)
		bg, bgOK := builder.BackgroundPixelAt(probeX, probeY)
		fmt.Printf("foreground: %s\n", formatRGB(fg, fgOK))
		fmt.Printf("background: %s\n", formatRGB(bg, bgOK))
		return nil
	},
}

func init() {
	f := probeCmd.Flags()
	f.IntVar(&probeX, "x", 0, "absolute x coordinate")
	f.IntVar(&probeY, "y", 0, "absolute y coordinate")
	f.Bool("http-server-mode", false, "wait render_delay after showing text")
}

func formatRGB(c capture.RGB, ok bool) string {
	if !ok {
		return "outside captured region"
	}
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
