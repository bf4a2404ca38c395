package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fhoech/allura2wpxml/src/oops"
	"github.com/fhoech/allura2wpxml/src/utils"
)

const DateLayout = "2006-01-02"
const TimestampLayout = "2006-01-02 15:04:05"

const (
	EnvS3Key    = "ALLURA2WPXML_S3_KEY"
	EnvS3Secret = "ALLURA2WPXML_S3_SECRET"
)

func Default() ExportConfig {
	return ExportConfig{
		StartID:            1,
		IncludeAttachments: string(AttachmentsAll),
		Timezone:           "Local",
		Output:             "-",
		LogLevel:           "info",
		Render: RenderConfig{
			Dialect: string(DialectMarkdown),
		},
	}
}

// Load overlays the TOML file at path onto cfg. Unknown keys are an error so
// that typos don't silently fall back to defaults.
func Load(path string, cfg *ExportConfig) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return oops.Input(err, "failed to read config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return oops.Input(nil, "unknown keys in config file %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv fills S3 credentials from the environment when the config leaves them empty.
func ApplyEnv(cfg *ExportConfig) {
	if cfg.S3.Key == "" {
		cfg.S3.Key = os.Getenv(EnvS3Key)
	}
	if cfg.S3.Secret == "" {
		cfg.S3.Secret = os.Getenv(EnvS3Secret)
	}
}

// Resolve validates the config and converts it into Settings. wallClock is
// only consulted when no fixed "now" is configured, for the default end of the
// date range.
func (cfg ExportConfig) Resolve(wallClock time.Time) (Settings, error) {
	if cfg.StartID < 0 {
		return Settings{}, oops.Input(nil, "start id must not be negative, got %d", cfg.StartID)
	}

	mode, err := ParseAttachmentMode(cfg.IncludeAttachments)
	if err != nil {
		return Settings{}, err
	}

	loc, err := time.LoadLocation(utils.OrDefault(cfg.Timezone, "Local"))
	if err != nil {
		return Settings{}, oops.Input(err, "unknown timezone %q", cfg.Timezone)
	}

	var now time.Time
	if cfg.Now != "" {
		now, err = time.ParseInLocation(TimestampLayout, cfg.Now, loc)
		if err != nil {
			return Settings{}, oops.Input(err, "bad value for now, expected YYYY-MM-DD HH:MM:SS")
		}
	}

	today := wallClock.In(loc)
	if !now.IsZero() {
		today = now
	}
	dateRange, err := ParseDateRange(cfg.PostDateRange, today)
	if err != nil {
		return Settings{}, err
	}

	dialect := Dialect(utils.OrDefault(cfg.Render.Dialect, string(DialectMarkdown)))
	switch dialect {
	case DialectMarkdown, DialectBBCode:
	default:
		return Settings{}, oops.Input(nil, "unknown markup dialect %q (markdown|bbcode)", cfg.Render.Dialect)
	}

	return Settings{
		StartID:            cfg.StartID,
		BaseUrl:            cfg.BaseUrl,
		Creator:            cfg.Creator,
		IncludeAttachments: mode,
		PostDateRange:      dateRange,
		Location:           loc,
		Now:                now,
		Render: RenderSettings{
			Dialect:   dialect,
			Highlight: cfg.Render.Highlight,
			Linkify:   cfg.Render.Linkify,
			Sanitize:  cfg.Render.Sanitize,
		},
	}, nil
}

func ParseAttachmentMode(s string) (AttachmentMode, error) {
	switch mode := AttachmentMode(strings.ToLower(utils.OrDefault(s, string(AttachmentsAll)))); mode {
	case AttachmentsAll, AttachmentsNone, AttachmentsOnly:
		return mode, nil
	}
	return "", oops.Input(nil, "include attachments must be one of all, none, only; got %q", s)
}

// ParseDateRange parses "YYYY-mm-dd_YYYY-mm-dd". An empty string means from
// 0001-01-01 up to and including today.
func ParseDateRange(s string, today time.Time) (DateRange, error) {
	if s == "" {
		return DateRange{
			From: time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC),
		}, nil
	}

	parts := strings.Split(s, "_")
	if len(parts) != 2 {
		return DateRange{}, oops.Input(nil, "post date range must look like YYYY-mm-dd_YYYY-mm-dd, got %q", s)
	}
	from, err := time.Parse(DateLayout, parts[0])
	if err != nil {
		return DateRange{}, oops.Input(err, "bad start of post date range")
	}
	to, err := time.Parse(DateLayout, parts[1])
	if err != nil {
		return DateRange{}, oops.Input(err, "bad end of post date range")
	}
	return DateRange{From: from, To: to}, nil
}

// Contains compares only the calendar date of t, in t's own location.
func (r DateRange) Contains(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(r.From) && !d.After(r.To)
}

func (r DateRange) String() string {
	return r.From.Format(DateLayout) + " to " + r.To.Format(DateLayout)
}
