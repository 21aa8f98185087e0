package validation

import (
	"os"
	"testing"

	"github.com/spacious-team/investbook-sub001/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestValidateReportSignature(t *testing.T) {
	if err := ValidateReportSignature([]byte("PK\x03\x04rest of workbook")); err != nil {
		t.Errorf("xlsx signature rejected: %v", err)
	}
	legacy := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00}
	if err := ValidateReportSignature(legacy); err == nil {
		t.Error("legacy xls must be rejected with a hint")
	}
	if err := ValidateReportSignature([]byte("plain text")); err == nil {
		t.Error("non-workbook content must be rejected")
	}
}

func TestValidateClientContentType(t *testing.T) {
	ok := []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/zip",
		"application/octet-stream; charset=binary",
		"",
	}
	for _, contentType := range ok {
		if err := ValidateClientContentType(contentType); err != nil {
			t.Errorf("ValidateClientContentType(%q) = %v", contentType, err)
		}
	}
	if err := ValidateClientContentType("text/html"); err == nil {
		t.Error("text/html must be rejected")
	}
}
