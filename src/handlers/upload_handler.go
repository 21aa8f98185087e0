// Package handlers exposes the HTTP API.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spacious-team/investbook-sub001/src/config"
	"github.com/spacious-team/investbook-sub001/src/logger"
	"github.com/spacious-team/investbook-sub001/src/security/validation"
	"github.com/spacious-team/investbook-sub001/src/services"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

type UploadHandler struct {
	uploadService services.UploadService
}

func NewUploadHandler(service services.UploadService) *UploadHandler {
	return &UploadHandler{
		uploadService: service,
	}
}

// HandleUpload accepts one or more broker statements in the "reports"
// multipart field and imports them.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}
	headers := r.MultipartForm.File["reports"]
	if len(headers) == 0 {
		utils.SendJSONError(w, "No files in request. Ensure the 'reports' field is used.", http.StatusBadRequest)
		return
	}

	files := make([]services.UploadedFile, 0, len(headers))
	for _, fileHeader := range headers {
		if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
			utils.SendJSONError(w, fmt.Sprintf("File %q too large, max %d MB", fileHeader.Filename, config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
			return
		}
		if err := validation.ValidateClientContentType(fileHeader.Header.Get("Content-Type")); err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			logger.L.Warn("Failed to open uploaded file", "file", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Failed to read file %q", fileHeader.Filename), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			logger.L.Warn("Failed to read uploaded file", "file", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Failed to read file %q", fileHeader.Filename), http.StatusBadRequest)
			return
		}
		if err := validation.ValidateReportSignature(data); err != nil {
			utils.SendJSONError(w, fmt.Sprintf("File %q: %v", fileHeader.Filename, err), http.StatusBadRequest)
			return
		}
		files = append(files, services.UploadedFile{Name: fileHeader.Filename, Data: data})
	}

	logger.L.Info("Processing upload request", "files", len(files))
	result := h.uploadService.ProcessUpload(files)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for upload result", "error", err)
	}
}

// HandleGetLatestUploadResult returns the cached outcome of the last
// upload, if any still is in the cache.
func (h *UploadHandler) HandleGetLatestUploadResult(w http.ResponseWriter, r *http.Request) {
	result, ok := h.uploadService.LatestUploadResult()
	if !ok {
		utils.SendJSONError(w, "no upload processed yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for latest upload result", "error", err)
	}
}
