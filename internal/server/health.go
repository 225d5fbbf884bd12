package server

import (
	"encoding/json"
	"net/http"
)

type healthSpecInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type healthSchemas struct {
	TotalRefs  int `json:"totalRefs"`
	Cached     int `json:"cached"`
	CyclicRefs int `json:"cyclicRefs"`
}

type healthBody struct {
	Status  string         `json:"status"`
	Version string         `json:"version"`
	Spec    healthSpecInfo `json:"spec"`
	Schemas healthSchemas  `json:"schemas"`
}

// handleHealth serves /_x-steady/health per spec.md §6: a liveness probe
// that also surfaces the loaded document's identity and the registry's
// reference-graph size, so a caller can tell this instance apart from
// another spec file without hitting a real route.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := healthBody{
		Status:  "healthy",
		Version: Version,
		Spec: healthSpecInfo{
			Title:   s.doc.Info.Title,
			Version: s.doc.Info.Version,
		},
		Schemas: healthSchemas{
			TotalRefs:  len(s.reg.Graph().Edges()),
			Cached:     len(s.reg.GetComponentSchemas()),
			CyclicRefs: len(s.reg.Graph().Cycles()),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	data, _ := json.Marshal(body)
	_, _ = w.Write(data)
}

// handleSpec serves /_x-steady/spec: the raw decoded document tree, for
// a caller that wants to inspect exactly what this instance loaded
// (spec.md §6).
func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(s.doc.RawRoot())
	if err != nil {
		s.writeServerError(w, r)
		return
	}
	_, _ = w.Write(data)
}
