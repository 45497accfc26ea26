package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/testsheet/internal/core"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// formOverhead is allowed on top of the file size limit for the other fields
// and multipart framing.
const formOverhead = 64 << 10

// readUpload parses the multipart form and loads the "file" field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, *core.Dataset, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+formOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, fmt.Errorf("file too large: limit is %d bytes", s.cfg.Upload.MaxFileSize)
		}
		return "", nil, fmt.Errorf("no file provided: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("no file provided: %w", err)
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	ds, err := s.service.Load(ctx, header.Filename, file)
	return header.Filename, ds, err
}

// formInt parses an optional whole-number form field. ok is false when the
// field is absent or blank.
func formInt(r *http.Request, name string) (v int, ok bool, err error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid parameter %s: %q is not a whole number", name, raw)
	}
	return v, true, nil
}

// formBool reports whether a checkbox-style field is set.
func formBool(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// parseGenerateRequest reads selection and layout settings from the form.
// Missing range fields take the dataset's defaults; supplied values are used
// as given so that out-of-range input is reported rather than corrected.
func (s *Server) parseGenerateRequest(r *http.Request, ds *core.Dataset) (core.GenerateRequest, error) {
	var req core.GenerateRequest
	p := s.service.Defaults(ds)

	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"start", &p.Start},
		{"end", &p.End},
		{"count", &p.Count},
		{"rows_per_block", &req.RowsPerBlock},
	} {
		v, ok, err := formInt(r, f.name)
		if err != nil {
			return req, err
		}
		if ok {
			*f.dst = v
		}
	}

	order, err := core.ParseSortOrder(r.FormValue("order"))
	if err != nil {
		return req, err
	}
	p.Order = order
	p.Filter = strings.TrimSpace(r.FormValue("filter"))

	seed, err := core.ParseSeed(strings.TrimSpace(r.FormValue("seed")))
	if err != nil {
		return req, err
	}

	req.Params = p
	req.Seed = seed
	req.Simple = r.FormValue("format") == "simple" || formBool(r, "simple")
	return req, nil
}
