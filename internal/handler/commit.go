package handler

import (
	"errors"
	"net/http"

	"github.com/ecomonitor/aquamap/internal/domain"
	"github.com/ecomonitor/aquamap/internal/middleware"
)

type stagedPinRequest struct {
	ID          string   `json:"id" validate:"required,startswith=temp_"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	X           *float64 `json:"x" validate:"required_with=Y"`
	Y           *float64 `json:"y" validate:"required_with=X"`
}

type commitRequest struct {
	Pins []stagedPinRequest `json:"pins" validate:"min=1,unique=ID,dive"`
}

type commitResultResponse struct {
	ID      string       `json:"id"`
	Outcome string       `json:"outcome"`
	Pin     *pinResponse `json:"pin,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type commitResponse struct {
	Results []commitResultResponse `json:"results"`
}

// CommitPins handles POST /api/pines/commit: the "save changes" action of the
// map editor. Staged pins placed on the overlay are stored and positioned;
// pins never placed are discarded. Each pin gets its own outcome, so the
// response is 200 even when some pins failed.
func (s *Server) CommitPins(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if !s.decode(w, r, &req) {
		return
	}

	staged := make([]domain.StagedPin, 0, len(req.Pins))
	for _, p := range req.Pins {
		sp := domain.StagedPin{
			ProvisionalID: p.ID,
			Name:          p.Name,
			Category:      p.Category,
			Description:   p.Description,
		}
		if p.X != nil {
			sp.Percent = &domain.Percent{X: *p.X, Y: *p.Y}
		}
		staged = append(staged, sp)
	}

	user, _ := middleware.UserFromContext(r.Context())
	results := s.maps.Commit(r.Context(), &user.ID, staged)

	resp := commitResponse{Results: make([]commitResultResponse, 0, len(results))}
	for _, res := range results {
		out := commitResultResponse{ID: res.ProvisionalID, Outcome: string(res.Outcome)}
		if res.Pin != nil {
			pr := pinToResponse(*res.Pin)
			out.Pin = &pr
		}
		if res.Err != nil {
			out.Error = commitErrorMessage(res.Err)
		}
		resp.Results = append(resp.Results, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

func commitErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return unwrapMessage(err, domain.ErrValidation)
	case errors.Is(err, domain.ErrAuthorityUnavailable):
		return "coordinate authority unavailable; position not saved"
	default:
		return "could not save pin"
	}
}
