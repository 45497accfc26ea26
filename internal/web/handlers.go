package web

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/testsheet/internal/core"
	"github.com/JonMunkholm/testsheet/internal/logging"
	"github.com/JonMunkholm/testsheet/internal/report"
	"github.com/JonMunkholm/testsheet/internal/web/templates"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	g := s.cfg.Generator
	page := templates.UploadPage(templates.PageData{
		MaxFileSizeMB:   s.cfg.Upload.MaxFileSize >> 20,
		RowsPerBlock:    s.service.RowsPerBlock(0),
		MinRowsPerBlock: g.MinRowsPerBlock,
		MaxRowsPerBlock: g.MaxRowsPerBlock,
		DefaultCount:    g.DefaultCount,
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render upload page", "error", err)
	}
}

// handleHealth reports liveness and generation slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"generations": s.service.LimiterStatus(),
	})
}

// handleTemplate serves the blank upload template or the sample list.
func (s *Server) handleTemplate(sample bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := s.service.Template(&buf, sample); err != nil {
			s.fail(w, r, err)
			return
		}
		writeAttachment(w, core.TemplateFilename(sample), buf.Bytes())
	}
}

// handleValidate checks an uploaded list and returns its summary, or the
// diagnostics that explain why it cannot be used.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	name, ds, err := s.readUpload(w, r)

	var defaults core.SelectParams
	if err == nil {
		defaults = s.service.Defaults(ds)
	}
	v := report.NewValidation(name, ds, defaults, err)

	status := http.StatusOK
	if v.Error != nil {
		status = statusForCode(v.Error.Code)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if status != http.StatusOK {
			w.Header().Set("HX-Reswap", "innerHTML")
		}
		w.WriteHeader(status)
		if err := templates.ValidationResult(v, s.service.MaxReportedRows()).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render validation", "error", err)
		}
		return
	}

	rr := &report.Renderer{Format: report.FormatJSON, RowLimit: s.service.MaxReportedRows()}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := rr.WriteValidation(w, v); err != nil {
		logging.FromContext(r.Context()).Error("write validation", "error", err)
	}
}

// handlePreview returns the rows a generation with the same settings would
// contain, without building a workbook.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name, ds, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := s.parseGenerateRequest(r, ds)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.service.Preview(r.Context(), ds, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.PreviewTable(items, req.Params).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render preview", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, report.Selection{
		Source: core.SourceTitle(name),
		Params: req.Params,
		Items:  items,
	})
}

// handleGenerate builds the workbook and sends it as a download.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	_, ds, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := s.parseGenerateRequest(r, ds)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	gen, err := s.service.Generate(WithRequestMetadata(r.Context(), r), ds, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("X-Generation-ID", gen.ID)
	w.Header().Set("X-Question-Count", strconv.Itoa(len(gen.Items)))
	writeAttachment(w, gen.Filename, gen.Data)
}

// writeAttachment sends data as an .xlsx download. Non-ASCII filenames are
// encoded per RFC 2231.
func writeAttachment(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
