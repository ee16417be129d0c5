package server

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/evmap/internal/geodata"
	"github.com/sells-group/evmap/internal/model"
	"github.com/sells-group/evmap/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTmpl = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"coord": func(f *float64) string {
		if f == nil {
			return ""
		}
		return geodata.FormatCoord(*f)
	},
}).ParseFS(templateFS, "templates/index.html"))

const maxBodyBytes = 1 << 20

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)
	locs, err := s.store.ListLocations(r.Context(), filter)
	if err != nil {
		s.internalError(w, "list locations", err)
		return
	}
	types, err := s.store.ListTypes(r.Context())
	if err != nil {
		s.internalError(w, "list types", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = indexTmpl.Execute(w, struct {
		Filter    store.LocationFilter
		Types     []model.TypeCount
		Locations []model.Location
	}{filter, types, locs})
	if err != nil {
		zap.L().Warn("server: render index", zap.Error(err))
	}
}

func (s *Server) listLocations(w http.ResponseWriter, r *http.Request) {
	if msg := validatePaging(r); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	locs, err := s.store.ListLocations(r.Context(), parseFilter(r))
	if err != nil {
		s.internalError(w, "list locations", err)
		return
	}
	if locs == nil {
		locs = []model.Location{}
	}
	writeJSON(w, http.StatusOK, locs)
}

func (s *Server) getLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := locationID(w, r)
	if !ok {
		return
	}
	loc, err := s.store.GetLocation(r.Context(), id)
	if err != nil {
		s.storeError(w, "get location", err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) listTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.ListTypes(r.Context())
	if err != nil {
		s.internalError(w, "list types", err)
		return
	}
	if types == nil {
		types = []model.TypeCount{}
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) createLocation(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeLocation(w, r)
	if !ok {
		return
	}
	var loc model.Location
	req.apply(&loc)

	if err := s.store.CreateLocation(r.Context(), &loc); err != nil {
		s.internalError(w, "create location", err)
		return
	}
	zap.L().Info("server: location created", zap.Int64("id", loc.ID), zap.String("name", loc.Name))
	writeJSON(w, http.StatusCreated, loc)
}

func (s *Server) updateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := locationID(w, r)
	if !ok {
		return
	}
	req, ok := s.decodeLocation(w, r)
	if !ok {
		return
	}

	loc, err := s.store.GetLocation(r.Context(), id)
	if err != nil {
		s.storeError(w, "get location", err)
		return
	}
	req.apply(loc)

	if err := s.store.UpdateLocation(r.Context(), loc); err != nil {
		s.storeError(w, "update location", err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) deleteLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := locationID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteLocation(r.Context(), id); err != nil {
		s.storeError(w, "delete location", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeLocation(w http.ResponseWriter, r *http.Request) (*LocationRequest, bool) {
	var req LocationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := req.check(s.validate); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}
	s.internalError(w, op, err)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	zap.L().Error("server: "+op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func locationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return 0, false
	}
	return id, true
}

func parseFilter(r *http.Request) store.LocationFilter {
	q := r.URL.Query()
	f := store.LocationFilter{
		Type:  q.Get("type"),
		Query: q.Get("q"),
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	return f
}

func validatePaging(r *http.Request) string {
	q := r.URL.Query()
	for _, key := range []string{"limit", "offset"} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err != nil || n < 0 {
			return "invalid " + key
		}
	}
	return ""
}
