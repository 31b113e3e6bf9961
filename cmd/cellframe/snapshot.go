package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var snapshotDataURI bool

var snapshotFlags = map[string]string{
	"channel": "transport.channel",
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print one frame as JSON, or as a JPEG data URI",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(changedFlags(cmd, snapshotFlags))
		if err != nil {
			return err
		}
		defer logger.Sync()

		builder, err := newBuilder(cfg, nil, logger)
		if err != nil {
			return err
		}
		if snapshotDataURI {
			uri, err := builder.ScaledDataURI(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(uri)
			return nil
		}

		frame, err := builder.BuildFrame(cmd.Context(), cfg.Transport.Channel)
		if err != nil {
			return err
		}
		out, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	f := snapshotCmd.Flags()
	f.BoolVar(&snapshotDataURI, "data-uri", false, "print a scaled JPEG data URI instead of a frame")
	f.String("channel", "1", "channel id stamped on the frame")
}
