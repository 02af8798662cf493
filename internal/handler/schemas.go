package handler

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"formpilot/internal/httputil"
)

// SchemaHandler serves the example form definition files bundled with
// the server, so hosts can browse and load them without shipping their
// own copies.
type SchemaHandler struct {
	formsDir string
	logger   *slog.Logger
}

// NewSchemaHandler creates a schema handler reading .md definitions
// from formsDir.
func NewSchemaHandler(formsDir string, logger *slog.Logger) *SchemaHandler {
	return &SchemaHandler{formsDir: formsDir, logger: logger}
}

// SchemaInfo describes one available definition file.
type SchemaInfo struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Size     int    `json:"size"`
}

// List returns the available .md definition files.
// GET /schemas
func (h *SchemaHandler) List(w http.ResponseWriter, r *http.Request) {
	var schemas []SchemaInfo

	entries, err := os.ReadDir(h.formsDir)
	if err != nil {
		// A missing directory just means no bundled schemas.
		httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"schemas": []SchemaInfo{}})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(h.formsDir, entry.Name()))
		if err != nil {
			h.logger.Warn("failed to read schema file", "file", entry.Name(), "error", err)
			continue
		}
		schemas = append(schemas, SchemaInfo{
			Filename: entry.Name(),
			Title:    schemaTitle(entry.Name(), string(content)),
			Size:     len(content),
		})
	}

	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Filename < schemas[j].Filename })
	if schemas == nil {
		schemas = []SchemaInfo{}
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"schemas": schemas})
}

// Get returns one definition file's content.
// GET /schemas/{filename}
func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if filename == "" || filename != filepath.Base(filename) {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid schema filename")
		return
	}

	content, err := os.ReadFile(filepath.Join(h.formsDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			httputil.RespondError(w, http.StatusNotFound, "Schema '"+filename+"' not found")
			return
		}
		h.logger.Error("failed to read schema file", "file", filename, "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Error reading schema file '"+filename+"'")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"filename": filename,
		"content":  string(content),
	})
}

// schemaTitle pulls the first markdown heading out of the body, falling
// back to the filename stem.
func schemaTitle(filename, content string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
