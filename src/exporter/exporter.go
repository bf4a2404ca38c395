package exporter

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/fhoech/allura2wpxml/src/config"
	"github.com/fhoech/allura2wpxml/src/convert"
	"github.com/fhoech/allura2wpxml/src/logging"
	"github.com/fhoech/allura2wpxml/src/models"
	"github.com/fhoech/allura2wpxml/src/objstore"
	"github.com/fhoech/allura2wpxml/src/oops"
	"github.com/fhoech/allura2wpxml/src/perf"
	"github.com/fhoech/allura2wpxml/src/utils"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootFlags exportFlags

var ExportCommand = &cobra.Command{
	Use:   "allura2wpxml <allura json> [start_id] [base_url] [creator] [include_attachments] [post_date_range]",
	Short: "Convert an Allura forum export to WordPress WXR for bbPress",
	Long: `Converts the forums of an Allura (SourceForge) project export into a
WordPress eXtended RSS document that the WordPress importer turns into
bbPress forums, topics and replies.

The input may be a local file, s3://bucket/key, or - for stdin.
include_attachments is one of all, none or only. post_date_range is
YYYY-mm-dd_YYYY-mm-dd and includes both ends.`,
	Args: cobra.RangeArgs(1, 6),
	Run: func(cmd *cobra.Command, args []string) {
		defer logging.LogPanics(nil)

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.Warn().Err(err).Msg("Failed to read .env file")
		}

		cfg, input, err := rootFlags.buildConfig(cmd, args)
		if err == nil {
			err = logging.SetLevel(cfg.LogLevel)
		}
		if err != nil {
			exitWithError(logging.GlobalLogger(), err)
		}

		logger := logging.With().Str("run", uuid.New().String()).Logger()
		job := Job{
			Input:     input,
			Config:    cfg,
			Store:     objstore.NewStore(cfg.S3),
			WallClock: time.Now(),
			Logger:    logger,
		}
		if _, err := job.Run(context.Background()); err != nil {
			exitWithError(&logger, err)
		}
	},
}

func init() {
	rootFlags.register(ExportCommand)
}

func exitWithError(logger *zerolog.Logger, err error) {
	if oops.IsInput(err) {
		logger.Error().Str("error", err.Error()).Msg("Invalid input")
	} else {
		logger.Error().Err(err).Msg("Export failed")
	}
	os.Exit(1)
}

// Job is one conversion, from reading the export to writing the document.
type Job struct {
	Input     string
	Config    config.ExportConfig
	Store     *objstore.Store
	WallClock time.Time
	Logger    zerolog.Logger
}

// Run panics in the renderer come back as errors.
func (j Job) Run(ctx context.Context) (summary convert.Summary, err error) {
	defer utils.RecoverPanicAsError(&err)
	logger := j.Logger

	settings, err := j.Config.Resolve(j.WallClock)
	if err != nil {
		return convert.Summary{}, err
	}
	inLoc, err := objstore.ParseLocation(j.Input)
	if err != nil {
		return convert.Summary{}, err
	}
	outLoc, err := objstore.ParseLocation(utils.OrDefault(j.Config.Output, objstore.Stdio))
	if err != nil {
		return convert.Summary{}, err
	}

	logParameters(&logger, inLoc, settings)

	rp := perf.MakeNewRunPerf("Export")
	defer func() {
		rp.EndRun()
		rp.Log(&logger)
	}()

	rp.StartBlock("IO", "Read export")
	data, err := j.Store.Read(ctx, inLoc)
	if err != nil {
		return convert.Summary{}, err
	}
	rp.EndBlock()

	rp.StartBlock("DECODE", "Decode export")
	export, err := models.DecodeExport(bytes.NewReader(data))
	if err != nil {
		return convert.Summary{}, err
	}
	rp.EndBlock()

	rp.StartBlock("CONVERT", "Convert forums")
	run := convert.NewRun(settings, j.WallClock, logger)
	items, err := run.Convert(export)
	if err != nil {
		return convert.Summary{}, err
	}
	rp.EndBlock()

	rp.StartBlock("IO", "Write document")
	var doc bytes.Buffer
	if err := convert.Assemble(&doc, items, settings.IncludeAttachments); err != nil {
		return convert.Summary{}, oops.New(err, "failed to render document")
	}
	if err := j.Store.Write(ctx, outLoc, doc.Bytes()); err != nil {
		return convert.Summary{}, err
	}
	rp.EndBlock()

	summary = run.Summary()
	logger.Info().Object("summary", summary).Str("output", outLoc.String()).Msg("Export finished")
	return summary, nil
}

func logParameters(logger *zerolog.Logger, input objstore.Location, settings config.Settings) {
	logger.Info().Msgf("Allura JSON filename: %s", input)
	logger.Info().Msgf("WordPress post start ID: %d", settings.StartID)
	logger.Info().Msgf("Base URL: %s", settings.BaseUrl)
	logger.Info().Msgf("WordPress post author: %s", settings.Creator)
	logger.Info().Msgf("Include attachments: %s", settings.IncludeAttachments)
	logger.Info().Msgf("Post date range: %s", settings.PostDateRange)
}
