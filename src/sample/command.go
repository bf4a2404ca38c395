package sample

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fhoech/allura2wpxml/src/config"
	"github.com/fhoech/allura2wpxml/src/exporter"
	"github.com/fhoech/allura2wpxml/src/logging"
	"github.com/fhoech/allura2wpxml/src/objstore"
	"github.com/fhoech/allura2wpxml/src/oops"
	"github.com/fhoech/allura2wpxml/src/utils"
	"github.com/spf13/cobra"
)

func init() {
	opts := DefaultOptions()
	var start string
	var s3cfg config.S3Config

	sampleCommand := &cobra.Command{
		Use:   "sample [output]",
		Short: "Write a random Allura forum export",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			defer logging.LogPanics(nil)

			output := objstore.Stdio
			if len(args) > 0 {
				output = args[0]
			}

			if err := writeSample(context.Background(), opts, start, s3cfg, output); err != nil {
				logging.Fatal().Err(err).Msg("Failed to write sample export")
			}
		},
	}
	flags := sampleCommand.Flags()
	flags.StringVar(&opts.Project, "project", opts.Project, "project name used in attachment URLs")
	flags.IntVar(&opts.Forums, "forums", opts.Forums, "number of forums")
	flags.IntVar(&opts.Threads, "threads", opts.Threads, "threads per forum")
	flags.IntVar(&opts.Replies, "replies", opts.Replies, "maximum replies per thread")
	flags.IntVar(&opts.AttachmentPercent, "attachments", opts.AttachmentPercent, "percentage of posts with attachments")
	flags.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed for ids, slugs and timestamps")
	flags.StringVar(&start, "start", opts.Start.Format(config.TimestampLayout), "time of the first post")
	flags.StringVar(&s3cfg.Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL")
	flags.StringVar(&s3cfg.Region, "s3-region", "", "S3 region")
	flags.BoolVar(&s3cfg.PathStyle, "s3-path-style", false, "use path-style S3 URLs")

	exporter.ExportCommand.AddCommand(sampleCommand)
}

func writeSample(ctx context.Context, opts Options, start string, s3cfg config.S3Config, output string) error {
	startTime, err := time.Parse(config.TimestampLayout, start)
	if err != nil {
		return oops.Input(err, "bad start time, expected YYYY-MM-DD HH:MM:SS")
	}
	opts.Start = startTime

	loc, err := objstore.ParseLocation(output)
	if err != nil {
		return err
	}

	data := utils.Must1(json.MarshalIndent(NewGenerator(opts).Export(), "", "  "))
	data = append(data, '\n')

	cfg := config.ExportConfig{S3: s3cfg}
	config.ApplyEnv(&cfg)
	return objstore.NewStore(cfg.S3).Write(ctx, loc, data)
}
