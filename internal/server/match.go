package server

import (
	"net/http"
	"time"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/dgellow/steady/internal/config"
)

// dispatchMatchError writes the 404 for a request that matched no route,
// distinguishing a path miss from a method miss and suggesting the
// nearest known path by edit distance, per spec.md §4.8 step 3 and §6's
// match-error body shape {error, suggestion}. Grounded on the teacher's
// 404 branch in HandleRequest, generalized beyond its telnyx-specific
// "/v2" prefix handling.
func (s *Server) dispatchMatchError(w http.ResponseWriter, r *http.Request, mode config.Mode, start time.Time) {
	path := r.URL.Path
	allowed := s.allowedMethods(path)

	message := "no route matches this path"
	if len(allowed) > 0 {
		message = "the path exists but does not support " + r.Method
	}

	suggestion := s.nearestPath(path)

	s.writeMatchError(w, r, mode, message, suggestion)

	s.logger.Info("request",
		zap.String("method", r.Method), zap.String("path", path),
		zap.String("matched_path", ""), zap.String("mode", string(mode)),
		zap.Int("status", http.StatusNotFound), zap.Duration("elapsed", time.Since(start)),
	)
	s.coll.Add(nil, false)
}

// nearestPath returns the known pattern with the smallest Levenshtein
// distance to path, or "" if there are no known patterns at all.
func (s *Server) nearestPath(path string) string {
	var best string
	bestDist := -1

	for _, pattern := range s.allPatterns {
		dist := levenshtein.ComputeDistance(path, pattern)
		if bestDist == -1 || dist < bestDist {
			bestDist = dist
			best = pattern
		}
	}
	return best
}
