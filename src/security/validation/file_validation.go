// Package validation checks uploaded report files before any parsing
// touches them.
package validation

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spacious-team/investbook-sub001/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed
// client-declared MIME types. Browsers disagree on what to send for
// xlsx and zip files, so the generic fallback stays allowed and the
// magic-byte check does the real work.
var AllowedClientContentTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel": true,
	"application/zip":          true,
	"application/x-zip-compressed": true,
	"application/octet-stream":     true,
}

// ValidateClientContentType checks the Content-Type header provided by
// the client.
func ValidateClientContentType(contentType string) error {
	mime := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if mime == "" {
		return nil
	}
	if !AllowedClientContentTypes[mime] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for report upload", contentType)
	}
	return nil
}

// File signatures of the formats brokers deliver statements in.
var (
	zipSignature = []byte{0x50, 0x4B, 0x03, 0x04}                         // xlsx and zip archives
	cfbSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1} // legacy binary xls
)

// ValidateReportSignature checks the actual file content signature
// (magic bytes). Only zip-based files pass: an xlsx workbook and a zip
// archive share the signature and both are accepted.
func ValidateReportSignature(data []byte) error {
	if bytes.HasPrefix(data, zipSignature) {
		return nil
	}
	if bytes.HasPrefix(data, cfbSignature) {
		return fmt.Errorf("legacy binary xls reports are not supported, re-save the statement as xlsx")
	}
	logger.L.Warn("Uploaded file has no known report signature")
	return fmt.Errorf("file is not an xlsx workbook or zip archive")
}
