package drivefs

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/teemow/drivepath/internal/drive"
	"github.com/teemow/drivepath/internal/logging"
)

// DefaultMaxReadSize is the content limit when ReadOptions.MaxSize is unset.
const DefaultMaxReadSize = 1 << 20

// Content encodings of ReadResult.
const (
	EncodingUTF8   = "utf-8"
	EncodingBase64 = "base64"
)

// exportFormats maps Workspace-native types to the format they are read as.
var exportFormats = map[string]string{
	drive.DocumentMimeType:     "text/plain",
	drive.SpreadsheetMimeType:  "text/csv",
	drive.PresentationMimeType: "text/plain",
	drive.DrawingMimeType:      "image/png",
}

// ExportFormat returns the MIME type a Workspace-native type is exported as.
func ExportFormat(mimeType string) (string, bool) {
	f, ok := exportFormats[mimeType]
	return f, ok
}

// ReadOptions selects a file and an optional byte range.
type ReadOptions struct {
	FileID  string
	MaxSize int

	// StartOffset is inclusive and EndOffset exclusive. Offsets beyond the
	// content are clamped.
	StartOffset *int64
	EndOffset   *int64
}

// ReadResult is the decoded content of a file.
type ReadResult struct {
	FileID string `json:"fileId"`
	Name   string `json:"name"`
	Path   string `json:"path"`

	// MimeType is the type of Content; for exported documents it is the
	// export format, and SourceMimeType is the native type.
	MimeType       string `json:"mimeType"`
	SourceMimeType string `json:"sourceMimeType,omitempty"`
	Exported       bool   `json:"exported"`

	Content  string `json:"content"`
	Encoding string `json:"encoding"`

	// TotalSize is the size of the whole file, FullSize that of the
	// requested range and ReturnedSize what Content holds.
	TotalSize    int  `json:"totalSize"`
	FullSize     int  `json:"fullSize"`
	ReturnedSize int  `json:"returnedSize"`
	Truncated    bool `json:"truncated"`
}

// ReadFile returns the content of a file. Workspace documents are exported;
// other files are downloaded whole and sliced to the requested range.
func (a *Adapter) ReadFile(ctx context.Context, opts ReadOptions) (*ReadResult, error) {
	if opts.FileID == "" {
		return nil, fmt.Errorf("fileId is required")
	}
	if opts.StartOffset != nil && opts.EndOffset != nil && *opts.StartOffset > *opts.EndOffset {
		return nil, fmt.Errorf("startOffset must not be greater than endOffset")
	}

	obj, err := a.store.Get(ctx, opts.FileID)
	if err != nil {
		return nil, err
	}

	res := &ReadResult{
		FileID:   obj.ID,
		Name:     obj.Name,
		Path:     a.resolver.PathFor(ctx, obj),
		MimeType: obj.MimeType,
	}

	var data []byte
	switch obj.Kind {
	case drive.KindFolder:
		return nil, fmt.Errorf("%s is a folder", res.Path)
	case drive.KindDocument:
		format, ok := ExportFormat(obj.MimeType)
		if !ok {
			return nil, fmt.Errorf("reading %s is not supported", obj.MimeType)
		}
		data, err = a.store.Export(ctx, obj.ID, format)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", res.Path, err)
		}
		res.SourceMimeType = obj.MimeType
		res.MimeType = format
		res.Exported = true
	default:
		data, err = a.store.Download(ctx, obj.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", res.Path, err)
		}
	}

	res.TotalSize = len(data)
	data = sliceRange(data, opts.StartOffset, opts.EndOffset)
	res.FullSize = len(data)

	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxReadSize
	}

	if isText(res.MimeType, data) {
		if len(data) > maxSize {
			data = trimToRune(data[:maxSize])
		}
		res.Content = string(data)
		res.Encoding = EncodingUTF8
	} else {
		if len(data) > maxSize {
			data = data[:maxSize]
		}
		res.Content = base64.StdEncoding.EncodeToString(data)
		res.Encoding = EncodingBase64
	}
	res.ReturnedSize = len(data)
	res.Truncated = res.ReturnedSize < res.FullSize

	a.logger.Debug("read file",
		logging.FileID(obj.ID),
		logging.Count(res.ReturnedSize))
	return res, nil
}

func sliceRange(data []byte, start, end *int64) []byte {
	n := int64(len(data))
	from, to := int64(0), n
	if start != nil {
		from = min(max(*start, 0), n)
	}
	if end != nil {
		to = min(max(*end, from), n)
	}
	return data[from:to]
}

// trimToRune drops a trailing partial UTF-8 sequence left by truncation.
func trimToRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0 && !utf8.Valid(b); i++ {
		b = b[:len(b)-1]
	}
	return b
}

var textMimeTypes = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/javascript": true,
	"application/x-yaml":     true,
	"application/yaml":       true,
	"application/x-sh":       true,
	"application/sql":        true,
	"application/toml":       true,
	"image/svg+xml":          true,
}

// isText classifies content by its declared type. Generic or missing types
// fall back to sniffing the content.
func isText(mimeType string, data []byte) bool {
	base := strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	switch {
	case strings.HasPrefix(base, "text/"):
		return true
	case textMimeTypes[base]:
		return true
	case strings.HasSuffix(base, "+json"), strings.HasSuffix(base, "+xml"):
		return true
	case base == "" || base == "application/octet-stream":
		for m := mimetype.Detect(data); m != nil; m = m.Parent() {
			if m.Is("text/plain") {
				return utf8.Valid(data)
			}
		}
	}
	return false
}
