package config

import "time"

type AttachmentMode string

const (
	AttachmentsAll  AttachmentMode = "all"
	AttachmentsNone AttachmentMode = "none"
	AttachmentsOnly AttachmentMode = "only"
)

type Dialect string

const (
	DialectMarkdown Dialect = "markdown"
	DialectBBCode   Dialect = "bbcode"
)

// ExportConfig is the user-facing configuration, as read from a TOML file and
// overridden by command line flags.
type ExportConfig struct {
	StartID            int    `toml:"start_id"`
	BaseUrl            string `toml:"base_url"`
	Creator            string `toml:"creator"`
	IncludeAttachments string `toml:"include_attachments"`
	PostDateRange      string `toml:"post_date_range"` // from_to, YYYY-mm-dd_YYYY-mm-dd
	Timezone           string `toml:"timezone"`
	Now                string `toml:"now"`

	Output   string `toml:"output"`
	LogLevel string `toml:"log_level"`

	Render RenderConfig `toml:"render"`
	S3     S3Config     `toml:"s3"`
}

type RenderConfig struct {
	Dialect   string `toml:"dialect"`
	Highlight bool   `toml:"highlight"`
	Linkify   bool   `toml:"linkify"`
	Sanitize  bool   `toml:"sanitize"`
}

type S3Config struct {
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	Key       string `toml:"key"`
	Secret    string `toml:"secret"`
	PathStyle bool   `toml:"path_style"`
}

// Settings is a validated ExportConfig, ready to drive one conversion run.
type Settings struct {
	StartID            int
	BaseUrl            string
	Creator            string
	IncludeAttachments AttachmentMode
	PostDateRange      DateRange
	Location           *time.Location

	// Zero means the run reads the wall clock once when it starts.
	Now time.Time

	Render RenderSettings
}

type RenderSettings struct {
	Dialect   Dialect
	Highlight bool
	Linkify   bool
	Sanitize  bool
}

// DateRange is an inclusive range of calendar dates. Only year, month and day
// take part in comparisons.
type DateRange struct {
	From time.Time
	To   time.Time
}
