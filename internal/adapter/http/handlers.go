package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-atcf/internal/besttrack"
	"github.com/couchcryptid/storm-data-atcf/internal/domain"
	"github.com/couchcryptid/storm-data-atcf/internal/filter"
	"github.com/couchcryptid/storm-data-atcf/internal/table"
)

type stormsResponse struct {
	CycleID     string               `json:"cycle_id"`
	RefreshedAt time.Time            `json:"refreshed_at"`
	Partial     bool                 `json:"partial"`
	Count       int                  `json:"count"`
	Storms      []domain.ActiveStorm `json:"storms"`
}

func (s *Server) handleStorms(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.api.Storms.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no refresh has completed yet")
		return
	}

	f, err := filter.Compile(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mask := s.api.Regions
	if raw := r.URL.Query().Get("regions"); raw != "" {
		if mask, ok = domain.ParseBasinMask(raw); !ok {
			writeError(w, http.StatusBadRequest, "regions must be six 0/1 flags in the order ATL EPAC CPAC WPAC IO SHEM")
			return
		}
	}

	storms := f.WithRegions(mask).Apply(snap.Storms)
	writeJSON(w, http.StatusOK, stormsResponse{
		CycleID:     snap.CycleID,
		RefreshedAt: snap.RefreshedAt,
		Partial:     snap.Partial,
		Count:       len(storms),
		Storms:      storms,
	})
}

// handleStorm resolves {id} against the live table by name, short ID or ATCF
// ID and answers with that storm's classified entry from the latest snapshot.
func (s *Server) handleStorm(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.api.Storms.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no refresh has completed yet")
		return
	}

	id := r.PathValue("id")
	name := id
	if strings.EqualFold(id, domain.InvestName) {
		name = ""
	}
	rec, ok, err := s.api.Live.Find(name, id)
	switch {
	case errors.Is(err, table.ErrNoActiveData):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.logger.Error("storm lookup failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "storm lookup failed")
		return
	case !ok:
		writeError(w, http.StatusNotFound, "no active storm matches "+id)
		return
	}

	for _, st := range snap.Storms {
		if st.ID == rec.Fix.ShortID {
			writeJSON(w, http.StatusOK, st)
			return
		}
	}
	writeError(w, http.StatusNotFound, "storm "+rec.Fix.ShortID+" has not been classified yet")
}

type bestTrackResponse struct {
	Storm   *besttrack.Storm  `json:"storm,omitempty"`
	Nature  domain.Category   `json:"nature,omitempty"`
	Matches []besttrack.Match `json:"matches,omitempty"`
}

func (s *Server) handleBestTrack(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := besttrack.Filter{
		Name:   q.Get("name"),
		Basin:  q.Get("basin"),
		ATCFID: q.Get("atcf_id"),
		SID:    q.Get("sid"),
		Table:  besttrack.Table(q.Get("table")),
	}
	if raw := q.Get("season"); raw != "" {
		season, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "season must be a year")
			return
		}
		f.Season = season
	}

	res, err := s.api.BestTrack.Find(r.Context(), f)
	switch {
	case errors.Is(err, besttrack.ErrArchiveNotReady):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, besttrack.ErrNoFilters), errors.Is(err, besttrack.ErrInvalidBasin),
		errors.Is(err, besttrack.ErrInvalidSeason), errors.Is(err, besttrack.ErrInvalidTable):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("best-track lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "best-track lookup failed")
		return
	}

	if !res.Found() {
		writeError(w, http.StatusNotFound, "no storm matches the given filters")
		return
	}
	if res.Ambiguous() {
		writeJSON(w, http.StatusMultipleChoices, bestTrackResponse{Matches: res.Matches})
		return
	}

	nature, err := s.api.BestTrack.Nature(r.Context(), *res.Storm)
	if err != nil {
		s.logger.Warn("best-track nature lookup failed", "sid", res.Storm.BestTrackID, "error", err)
	}
	writeJSON(w, http.StatusOK, bestTrackResponse{Storm: res.Storm, Nature: nature})
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok, err := s.api.Records.Current(r.Context())
	if err != nil {
		s.logger.Error("reading storm record failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not read the storm record")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no storm record yet")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
