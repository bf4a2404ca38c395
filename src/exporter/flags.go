package exporter

import (
	"strconv"

	"github.com/fhoech/allura2wpxml/src/config"
	"github.com/fhoech/allura2wpxml/src/oops"
	"github.com/fhoech/allura2wpxml/src/utils"
	"github.com/spf13/cobra"
)

// exportFlags holds the command line flags. Each flag overrides the config
// file only when given explicitly.
type exportFlags struct {
	configFile string
	values     config.ExportConfig
}

type flagOverride struct {
	name  string
	apply func(cfg *config.ExportConfig, v *config.ExportConfig)
}

var flagOverrides = []flagOverride{
	{"start-id", func(cfg, v *config.ExportConfig) { cfg.StartID = v.StartID }},
	{"base-url", func(cfg, v *config.ExportConfig) { cfg.BaseUrl = v.BaseUrl }},
	{"creator", func(cfg, v *config.ExportConfig) { cfg.Creator = v.Creator }},
	{"include-attachments", func(cfg, v *config.ExportConfig) { cfg.IncludeAttachments = v.IncludeAttachments }},
	{"post-date-range", func(cfg, v *config.ExportConfig) { cfg.PostDateRange = v.PostDateRange }},
	{"timezone", func(cfg, v *config.ExportConfig) { cfg.Timezone = v.Timezone }},
	{"now", func(cfg, v *config.ExportConfig) { cfg.Now = v.Now }},
	{"output", func(cfg, v *config.ExportConfig) { cfg.Output = v.Output }},
	{"log-level", func(cfg, v *config.ExportConfig) { cfg.LogLevel = v.LogLevel }},
	{"dialect", func(cfg, v *config.ExportConfig) { cfg.Render.Dialect = v.Render.Dialect }},
	{"highlight", func(cfg, v *config.ExportConfig) { cfg.Render.Highlight = v.Render.Highlight }},
	{"linkify", func(cfg, v *config.ExportConfig) { cfg.Render.Linkify = v.Render.Linkify }},
	{"sanitize", func(cfg, v *config.ExportConfig) { cfg.Render.Sanitize = v.Render.Sanitize }},
	{"s3-endpoint", func(cfg, v *config.ExportConfig) { cfg.S3.Endpoint = v.S3.Endpoint }},
	{"s3-region", func(cfg, v *config.ExportConfig) { cfg.S3.Region = v.S3.Region }},
	{"s3-path-style", func(cfg, v *config.ExportConfig) { cfg.S3.PathStyle = v.S3.PathStyle }},
}

func (f *exportFlags) register(cmd *cobra.Command) {
	def := config.Default()
	flags := cmd.Flags()

	flags.StringVarP(&f.configFile, "config", "c", "", "TOML config file")
	utils.Must(cmd.MarkFlagFilename("config", "toml"))
	flags.IntVar(&f.values.StartID, "start-id", def.StartID, "first WordPress post id")
	flags.StringVar(&f.values.BaseUrl, "base-url", def.BaseUrl, "URL of the WordPress site, with trailing slash")
	flags.StringVar(&f.values.Creator, "creator", def.Creator, "WordPress user that owns forums and attachments")
	flags.StringVar(&f.values.IncludeAttachments, "include-attachments", def.IncludeAttachments, "all, none or only")
	flags.StringVar(&f.values.PostDateRange, "post-date-range", def.PostDateRange, "YYYY-MM-DD_YYYY-MM-DD, inclusive (default: everything up to today)")
	flags.StringVar(&f.values.Timezone, "timezone", def.Timezone, "time zone of the export's timestamps")
	flags.StringVar(&f.values.Now, "now", def.Now, "fixed run time, YYYY-MM-DD HH:MM:SS, for reproducible output")
	flags.StringVarP(&f.values.Output, "output", "o", def.Output, "output file, s3://bucket/key, or - for stdout")
	flags.StringVar(&f.values.LogLevel, "log-level", def.LogLevel, "trace, debug, info, warn or error")
	flags.StringVar(&f.values.Render.Dialect, "dialect", def.Render.Dialect, "markup of the post texts: markdown or bbcode")
	flags.BoolVar(&f.values.Render.Highlight, "highlight", def.Render.Highlight, "highlight code blocks")
	flags.BoolVar(&f.values.Render.Linkify, "linkify", def.Render.Linkify, "turn bare URLs into links")
	flags.BoolVar(&f.values.Render.Sanitize, "sanitize", def.Render.Sanitize, "sanitize rendered HTML")
	flags.StringVar(&f.values.S3.Endpoint, "s3-endpoint", def.S3.Endpoint, "S3-compatible endpoint URL")
	flags.StringVar(&f.values.S3.Region, "s3-region", def.S3.Region, "S3 region")
	flags.BoolVar(&f.values.S3.PathStyle, "s3-path-style", def.S3.PathStyle, "use path-style S3 URLs")
}

// buildConfig layers defaults, the config file, the environment, explicit
// flags and finally the positional arguments. It returns the input location.
func (f *exportFlags) buildConfig(cmd *cobra.Command, args []string) (config.ExportConfig, string, error) {
	cfg := config.Default()
	if f.configFile != "" {
		if err := config.Load(f.configFile, &cfg); err != nil {
			return cfg, "", err
		}
	}
	config.ApplyEnv(&cfg)

	for _, o := range flagOverrides {
		if cmd.Flags().Changed(o.name) {
			o.apply(&cfg, &f.values)
		}
	}

	input, err := applyArgs(&cfg, args)
	return cfg, input, err
}

// applyArgs handles the positional form
//
//	<json> [start_id] [base_url] [creator] [include_attachments] [post_date_range]
func applyArgs(cfg *config.ExportConfig, args []string) (string, error) {
	if len(args) == 0 {
		return "", oops.Input(nil, "missing Allura JSON file")
	}
	if len(args) > 1 {
		startID, err := strconv.Atoi(args[1])
		if err != nil {
			return "", oops.Input(err, "start id must be a number, got %q", args[1])
		}
		cfg.StartID = startID
	}
	if len(args) > 2 {
		cfg.BaseUrl = args[2]
	}
	if len(args) > 3 {
		cfg.Creator = args[3]
	}
	if len(args) > 4 {
		cfg.IncludeAttachments = args[4]
	}
	if len(args) > 5 {
		cfg.PostDateRange = args[5]
	}
	return args[0], nil
}
