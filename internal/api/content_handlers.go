package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/BTreeMap/FlareFunnel/internal/content"
	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// watchListRequest is the body of POST /api/watchlist.
type watchListRequest struct {
	Q2 string        `json:"q2"`
	Q3 models.Q3Data `json:"q3"`
}

// listTestimonialsHandler handles GET /api/testimonials. With q1/q2 query parameters
// it returns the ranked scoring instead of the raw catalog.
func (s *Server) listTestimonialsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("q1") == "" && q.Get("q2") == "" {
		writeJSONResponse(w, http.StatusOK, models.Success(content.Testimonials()))
		return
	}
	scored := content.ScoreTestimonials(q.Get("q1"), q.Get("q2"), queryBool(r, "flipped"))
	writeJSONResponse(w, http.StatusOK, models.Success(scored))
}

// selectTestimonialHandler handles GET /api/testimonials/select?q1=&q2=&flipped=
func (s *Server) selectTestimonialHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t := content.SelectTestimonialForUser(q.Get("q1"), q.Get("q2"), queryBool(r, "flipped"))
	slog.Debug("Server.selectTestimonialHandler: selected", "id", t.ID, "q1", q.Get("q1"), "q2", q.Get("q2"))
	writeJSONResponse(w, http.StatusOK, models.Success(t))
}

// getTestimonialHandler handles GET /api/testimonials/{testimonialID}
func (s *Server) getTestimonialHandler(w http.ResponseWriter, r *http.Request) {
	t, ok := content.TestimonialByID(chi.URLParam(r, "testimonialID"))
	if !ok {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Testimonial not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(t))
}

// watchListHandler handles POST /api/watchlist
func (s *Server) watchListHandler(w http.ResponseWriter, r *http.Request) {
	var req watchListRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Server.watchListHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(content.GetWatchList(req.Q2, req.Q3)))
}

// watchListConfigHandler handles GET /api/watchlist/{painPoint}
func (s *Server) watchListConfigHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(content.WatchListConfigFor(chi.URLParam(r, "painPoint"))))
}

// queryBool reads a boolean query parameter; anything unparsable is false.
func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
