package api

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/vizprep-cli/internal/chart"
	"github.com/KaramelBytes/vizprep-cli/internal/cleaning"
	"github.com/KaramelBytes/vizprep-cli/internal/errs"
	"github.com/KaramelBytes/vizprep-cli/internal/ingest"
	"github.com/KaramelBytes/vizprep-cli/internal/project"
)

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*project.Project{}
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateProject accepts a multipart upload with fields file, name,
// description and sheet.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, r, errs.Validation("file", "invalid upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, errs.Validation("file", "a file field is required"))
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		base := filepath.Base(header.Filename)
		name = base[:len(base)-len(filepath.Ext(base))]
	}
	opt := ingest.Options{Sheet: r.FormValue("sheet"), LocaleNumbers: r.FormValue("locale_numbers") == "true"}
	p, err := h.app.Import(r.Context(), name, r.FormValue("description"), header.Filename, file, opt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body, err := h.app.Rows(r.Context(), chi.URLParam(r, "name"), q.Get("sort_key"), q.Get("sort_direction"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *Handler) Unique(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")
	vals, err := h.app.Unique(r.Context(), chi.URLParam(r, "name"), column)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"column": column, "unique_values": vals})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := h.app.Get(r.Context(), name); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
	if err := h.app.Export(r.Context(), name, w); err != nil {
		h.logger.Sugar().Errorw("export failed", "project", name, "error", err)
	}
}

// apply runs one cleaning operation and answers with the new metadata.
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, op cleaning.Operation) {
	md, err := h.app.Cleaning.Apply(r.Context(), chi.URLParam(r, "name"), op)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"metadata": md})
}

func (h *Handler) Impute(w http.ResponseWriter, r *http.Request) {
	var op cleaning.Impute
	if err := decode(r, &op); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.apply(w, r, op)
}

func (h *Handler) BatchImpute(w http.ResponseWriter, r *http.Request) {
	var op cleaning.Batch
	if err := decode(r, &op); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.apply(w, r, op)
}

func (h *Handler) RemoveColumn(w http.ResponseWriter, r *http.Request) {
	var op cleaning.RemoveColumn
	if err := decode(r, &op); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.apply(w, r, op)
}

func (h *Handler) Recode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Column   string `json:"column"`
		ValueMap any    `json:"value_map"`
	}
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := cleaning.ParseValueMap(body.ValueMap)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.apply(w, r, cleaning.Recode{Column: body.Column, ValueMap: m})
}

func (h *Handler) TreatOutliers(w http.ResponseWriter, r *http.Request) {
	var op cleaning.TreatOutliers
	if err := decode(r, &op); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.apply(w, r, op)
}

func (h *Handler) DetectOutliers(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Column string `json:"column"`
	}
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	rep, err := h.app.Cleaning.DetectOutliers(r.Context(), chi.URLParam(r, "name"), body.Column)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	var req chart.Request
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.app.Charts.Generate(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
