// Package files serves GET and POST requests under /files/ from a base
// directory.
package files

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
)

// Handler reads and writes files relative to a base directory. Writers to
// the same file from different connections are not serialized.
type Handler struct {
	baseDir string
	logger  zerolog.Logger
}

// NewHandler creates a handler rooted at baseDir
func NewHandler(baseDir string, logger zerolog.Logger) *Handler {
	return &Handler{
		baseDir: baseDir,
		logger:  logger.With().Str("component", "files").Logger(),
	}
}

// Serve handles a request for name, the request path with /files/ stripped
func (h *Handler) Serve(req *protocol.HttpRequest, name string) *protocol.HttpResponse {
	path, err := h.resolve(name)
	if err != nil {
		h.logger.Warn().Err(err).Str("name", name).Msg("rejected file name")
		return &protocol.HttpResponse{Status: protocol.StatusNotFound}
	}

	if req.Method == protocol.MethodPost {
		return h.write(path, req.Body)
	}
	return h.read(path)
}

// resolve joins name to the base directory. Names that would leave the base
// directory are rejected.
func (h *Handler) resolve(name string) (string, error) {
	path := filepath.Join(h.baseDir, name)
	rel, err := filepath.Rel(h.baseDir, path)
	if err != nil {
		return "", httperrors.NewHandlerError("cannot resolve file name", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", httperrors.NewHandlerError("file name escapes base directory", nil)
	}
	return path, nil
}

func (h *Handler) read(path string) *protocol.HttpResponse {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		h.logger.Debug().Str("path", path).Msg("file not found")
		return &protocol.HttpResponse{Status: protocol.StatusNotFound}
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		h.logger.Warn().Err(err).Str("path", path).Msg("read failed")
		return &protocol.HttpResponse{Status: protocol.StatusNotFound}
	}

	h.logger.Debug().
		Str("path", path).
		Str("size", humanize.Bytes(uint64(len(contents)))).
		Msg("read file")

	return &protocol.HttpResponse{
		Status: protocol.StatusOK,
		Headers: protocol.HttpHeaders{
			{Key: "Content-Type", Value: "application/octet-stream"},
			{Key: "Content-Length", Value: strconv.Itoa(len(contents))},
		},
		Body: contents,
	}
}

// write creates or truncates path. Failures map to 404.
func (h *Handler) write(path string, body []byte) *protocol.HttpResponse {
	if err := os.WriteFile(path, body, 0644); err != nil {
		h.logger.Warn().Err(err).Str("path", path).Msg("write failed")
		return &protocol.HttpResponse{Status: protocol.StatusNotFound}
	}

	h.logger.Debug().
		Str("path", path).
		Str("size", humanize.Bytes(uint64(len(body)))).
		Msg("wrote file")

	return &protocol.HttpResponse{Status: protocol.StatusCreated}
}
