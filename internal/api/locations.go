package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/wirelessmesh-core/internal/auth"
	"github.com/nerrad567/wirelessmesh-core/internal/location"
	"github.com/nerrad567/wirelessmesh-core/internal/mesh"
	"github.com/nerrad567/wirelessmesh-core/internal/notify"
)

type addLocationRequest struct {
	CustomerLocationID string `json:"customer_location_id"`
	AccessToken        string `json:"access_token"`
}

type activateDeviceRequest struct {
	DeviceID string `json:"device_id"`
}

type assignRoomRequest struct {
	Room string `json:"room"`
}

// commandResponse is returned for every accepted command.
type commandResponse struct {
	Event    notify.Envelope `json:"event"`
	Sequence int64           `json:"sequence"`
}

// POST /locations
func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var req addLocationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CustomerLocationID == "" {
		writeBadRequest(w, "customer_location_id is required")
		return
	}
	s.execute(w, r, http.StatusCreated, location.AddCustomerLocation{
		CustomerLocationID: req.CustomerLocationID,
		AccessToken:        req.AccessToken,
	})
}

// DELETE /locations/{id}
func (s *Server) handleRemoveLocation(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, http.StatusOK, location.RemoveCustomerLocation{
		CustomerLocationID: chi.URLParam(r, "id"),
	})
}

// POST /locations/{id}/devices
func (s *Server) handleActivateDevice(w http.ResponseWriter, r *http.Request) {
	var req activateDeviceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DeviceID == "" {
		writeBadRequest(w, "device_id is required")
		return
	}
	s.execute(w, r, http.StatusCreated, location.ActivateDevice{
		CustomerLocationID: chi.URLParam(r, "id"),
		DeviceID:           req.DeviceID,
	})
}

// DELETE /locations/{id}/devices/{deviceID}
func (s *Server) handleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, http.StatusOK, location.RemoveDevice{
		CustomerLocationID: chi.URLParam(r, "id"),
		DeviceID:           chi.URLParam(r, "deviceID"),
	})
}

// PUT /locations/{id}/devices/{deviceID}/room
func (s *Server) handleAssignRoom(w http.ResponseWriter, r *http.Request) {
	var req assignRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.execute(w, r, http.StatusOK, location.AssignRoom{
		CustomerLocationID: chi.URLParam(r, "id"),
		DeviceID:           chi.URLParam(r, "deviceID"),
		Room:               req.Room,
	})
}

// POST /locations/{id}/devices/{deviceID}/nightlight/toggle
func (s *Server) handleToggleNightlight(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, http.StatusOK, location.ToggleNightlight{
		CustomerLocationID: chi.URLParam(r, "id"),
		DeviceID:           chi.URLParam(r, "deviceID"),
	})
}

// GET /locations/{id}
func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	snap, err := s.locations.Query(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeCommandError(w, r, err)
		return
	}
	if !s.mayReadSecrets(r) {
		snap.AccessToken = ""
	}
	writeJSON(w, http.StatusOK, snap)
}

// GET /locations/{id}/events
func (s *Server) handleLocationEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	envs, err := s.locations.History(r.Context(), id)
	if err != nil {
		s.writeCommandError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"customer_location_id": id,
		"events":               envs,
		"count":                len(envs),
	})
}

// GET /locations
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.locations.LocationIDs(r.Context())
	if err != nil {
		s.writeCommandError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"customer_location_ids": ids,
		"count":                 len(ids),
	})
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, status int, cmd location.Command) {
	res, err := s.locations.Execute(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, err)
		return
	}
	writeJSON(w, status, s.commandResponse(res))
}

func (s *Server) commandResponse(res mesh.Result) commandResponse {
	env, err := notify.NewEnvelope(res.Record)
	if err != nil {
		// The record was built from res.Event moments ago.
		s.logger.Warn("building response envelope failed", "error", err)
	}
	return commandResponse{Event: env, Sequence: res.Record.Sequence}
}

// mayReadSecrets reports whether the caller may see customer access tokens.
// Only admins can; with auth disabled nobody can.
func (s *Server) mayReadSecrets(r *http.Request) bool {
	claims, ok := r.Context().Value(ctxKeyClaims).(*auth.Claims)
	return ok && claims.Role == auth.RoleAdmin
}

// decodeBody decodes a JSON request body, writing 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return false
		}
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
