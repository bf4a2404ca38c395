package objstore

import (
	"net/url"
	"strings"

	"github.com/fhoech/allura2wpxml/src/oops"
)

const Stdio = "-"

// Location is where a document is read from or written to: a local file,
// stdin/stdout ("-"), or an S3 object ("s3://bucket/key").
type Location struct {
	Path string

	Bucket string
	Key    string
}

func ParseLocation(s string) (Location, error) {
	if s == "" {
		return Location{}, oops.Input(nil, "empty location")
	}
	if !strings.HasPrefix(s, "s3://") {
		return Location{Path: s}, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return Location{}, oops.Input(err, "malformed S3 location %q", s)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return Location{}, oops.Input(nil, "S3 location %q needs a bucket and a key", s)
	}
	return Location{Bucket: u.Host, Key: key}, nil
}

func (l Location) IsS3() bool {
	return l.Bucket != ""
}

func (l Location) IsStdio() bool {
	return !l.IsS3() && l.Path == Stdio
}

func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Path
}
