// Package locals3 is a tiny S3 stand-in that keeps objects in a local folder.
// It understands path-style GET and PUT of single objects, which is all the
// exporter needs for s3:// input and output.
package locals3

import (
	"encoding/xml"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

type Server struct {
	Dir    string
	Logger zerolog.Logger
}

var _ http.Handler = &Server{}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key := bucketKey(r)
	s.Logger.Debug().Str("method", r.Method).Str("bucket", bucket).Str("key", key).Msg("S3 request")

	if bucket == "" || key == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "bucket and key are required")
		return
	}
	if isDotName(bucket) || isDotName(key) {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "bucket and key must not be . or ..")
		return
	}
	bucketDir := filepath.Join(s.Dir, bucket)
	objectPath := filepath.Join(bucketDir, key)

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "IncompleteBody", err.Error())
			return
		}
		if err := os.MkdirAll(bucketDir, fs.ModePerm); err != nil {
			writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
			return
		}
		if err := os.WriteFile(objectPath, body, 0644); err != nil {
			writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		if _, err := os.Stat(bucketDir); errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist")
			return
		}
		data, err := os.ReadFile(objectPath)
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
			return
		}
		w.Write(data)
	default:
		writeError(w, http.StatusNotImplemented, "NotImplemented", r.Method+" is not supported")
	}
}

// Keys are flattened so every object is one file in its bucket folder.
func bucketKey(r *http.Request) (string, string) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	slashIdx := strings.IndexByte(path, '/')
	if slashIdx == -1 {
		return path, ""
	}
	return path[:slashIdx], strings.ReplaceAll(path[slashIdx+1:], "/", "~")
}

func isDotName(name string) bool {
	return name == "." || name == ".."
}

type errorResponse struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	xml.NewEncoder(w).Encode(errorResponse{Code: code, Message: message})
}
