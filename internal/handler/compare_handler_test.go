package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"policy-pulse-server/internal/domain"
)

func multipartPDFs(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, filename := range fields {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write([]byte("%PDF-1.4 fake"))
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func newCompareHandler(svc domain.CompareService) *CompareHandler {
	container := testContainer()
	container.CompareService = svc
	return NewCompareHandler(container)
}

func TestCompareUploads_MissingFile(t *testing.T) {
	h := newCompareHandler(&mockCompareService{})

	body, contentType := multipartPDFs(t, map[string]string{"old": "old.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CompareUploads(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestCompareUploads_RejectsNonPDF(t *testing.T) {
	h := newCompareHandler(&mockCompareService{})

	body, contentType := multipartPDFs(t, map[string]string{"old": "old.txt", "new": "new.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CompareUploads(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestCompareUploads_UnknownFormat(t *testing.T) {
	h := newCompareHandler(&mockCompareService{})

	body, contentType := multipartPDFs(t, map[string]string{"old": "old.pdf", "new": "new.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare?format=bogus", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CompareUploads(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestCompareUploads_StructuredDefault(t *testing.T) {
	h := newCompareHandler(&mockCompareService{
		structured: &domain.StructuredDiff{Granularity: "line"},
	})

	body, contentType := multipartPDFs(t, map[string]string{"old": "old.pdf", "new": "new.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CompareUploads(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var diff domain.StructuredDiff
	if err := json.Unmarshal(rec.Body.Bytes(), &diff); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if diff.Granularity != "line" {
		t.Fatalf("expected line granularity, got %s", diff.Granularity)
	}
}

func TestCompareUploads_InlineFormat(t *testing.T) {
	h := newCompareHandler(&mockCompareService{inline: "+ added line"})

	body, contentType := multipartPDFs(t, map[string]string{"old": "old.pdf", "new": "new.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare?format=inline", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CompareUploads(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["view"] != "+ added line" {
		t.Fatalf("unexpected view: %q", resp["view"])
	}
}

func TestCompareUploads_UnifiedContextParam(t *testing.T) {
	svc := &mockCompareService{unified: &domain.UnifiedDiff{Patch: "@@ -1 +1 @@"}}
	h := newCompareHandler(svc)

	// Explicit context=0 must reach the differ as zero, not the default.
	body, contentType := multipartPDFs(t, map[string]string{"old": "old.pdf", "new": "new.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare?format=unified&context=0", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CompareUploads(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.unifiedOpts.Context != 0 {
		t.Fatalf("expected context 0, got %d", svc.unifiedOpts.Context)
	}

	// An absent parameter passes the default sentinel through instead.
	body, contentType = multipartPDFs(t, map[string]string{"old": "old.pdf", "new": "new.pdf"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/compare?format=unified", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()

	h.CompareUploads(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.unifiedOpts.Context >= 0 {
		t.Fatalf("expected negative sentinel for omitted context, got %d", svc.unifiedOpts.Context)
	}
}

func TestComparePolicies_RequiresBothIDs(t *testing.T) {
	h := newCompareHandler(&mockCompareService{})

	payload := bytes.NewBufferString(`{"oldPolicyId": "p1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/policies/compare", payload)
	rec := httptest.NewRecorder()

	h.ComparePolicies(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
