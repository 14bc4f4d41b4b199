package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"policy-pulse-server/internal/config"
	"policy-pulse-server/internal/domain"
)

// Comparison output shapes accepted on the format parameter.
const (
	formatStructured = "structured"
	formatJSON       = "json" // accepted as an alias of structured
	formatUnified    = "unified"
	formatInline     = "inline"
	formatTable      = "table"
)

// CompareHandler handles document-comparison HTTP requests
type CompareHandler struct {
	container      *config.Container
	logger         domain.Logger
	compareService domain.CompareService
	policyService  domain.PolicyService
}

// NewCompareHandler creates a new comparison handler
func NewCompareHandler(container *config.Container) *CompareHandler {
	return &CompareHandler{
		container:      container,
		logger:         container.GetLogger(),
		compareService: container.CompareService,
		policyService:  container.PolicyService,
	}
}

// CompareUploads handles POST /compare: two uploaded PDFs, one diff shape.
func (h *CompareHandler) CompareUploads(w http.ResponseWriter, r *http.Request) {
	maxSize := h.container.GetConfig().GetMaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxSize)

	oldBytes, oldName, err := readUpload(r, "old", maxSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	newBytes, newName, err := readUpload(r, "new", maxSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondWithDiff(w, r, oldBytes, newBytes, oldName, newName)
}

// comparePoliciesRequest selects two stored policy versions to compare.
type comparePoliciesRequest struct {
	OldPolicyID string `json:"oldPolicyId"`
	NewPolicyID string `json:"newPolicyId"`
}

// ComparePolicies handles POST /policies/compare: both PDFs are resolved
// from the policy directory and storage bucket.
func (h *CompareHandler) ComparePolicies(w http.ResponseWriter, r *http.Request) {
	var req comparePoliciesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OldPolicyID == "" || req.NewPolicyID == "" {
		writeError(w, http.StatusBadRequest, "oldPolicyId and newPolicyId are required")
		return
	}

	oldPDF, newPDF, oldPolicy, newPolicy, err := h.policyService.ComparePolicyFiles(r.Context(), req.OldPolicyID, req.NewPolicyID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.respondWithDiff(w, r, oldPDF, newPDF, oldPolicy.FileName, newPolicy.FileName)
}

// respondWithDiff dispatches on the format query parameter.
func (h *CompareHandler) respondWithDiff(w http.ResponseWriter, r *http.Request, oldPDF, newPDF []byte, oldName, newName string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatStructured
	}

	switch format {
	case formatStructured, formatJSON:
		diff, err := h.compareService.CompareStructured(r.Context(), oldPDF, newPDF)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, diff)

	case formatUnified:
		opts := domain.UnifiedOptions{
			OldName: oldName,
			NewName: newName,
			// -1 keeps an explicit context=0 distinguishable from an
			// absent parameter.
			Context: queryInt(r, "context", -1),
		}
		diff, err := h.compareService.CompareUnified(r.Context(), oldPDF, newPDF, opts)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, diff)

	case formatInline:
		view, err := h.compareService.CompareInline(r.Context(), oldPDF, newPDF, queryInt(r, "maxEqualLines", 0))
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"view": view})

	case formatTable:
		section := domain.TableSection(r.URL.Query().Get("section"))
		if section == "" {
			section = domain.SectionCoverage
		}
		diff, err := h.compareService.CompareTables(r.Context(), oldPDF, newPDF, section)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, diff)

	default:
		writeError(w, http.StatusBadRequest, "Unknown format. Allowed: structured, unified, inline, table.")
	}
}

// readUpload pulls one named PDF part out of the multipart form.
func readUpload(r *http.Request, field string, maxSize int64) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", &uploadError{field + " file is required"}
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, "", &uploadError{field + " file too large"}
	}
	if ext := strings.ToLower(header.Filename); !strings.HasSuffix(ext, ".pdf") {
		return nil, "", &uploadError{field + " file must be a PDF"}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", &uploadError{"failed to read " + field + " file"}
	}
	return data, header.Filename, nil
}

type uploadError struct{ msg string }

func (e *uploadError) Error() string { return e.msg }

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
