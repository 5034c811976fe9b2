package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goliatone/go-device-cache/devicecache"
	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// cacheContext applies the request cache directives. Cache-Control:
// no-cache bypasses cached reads; the returned recorder reports the result.
func cacheContext(r *http.Request) (context.Context, *devicecache.StatusRecorder) {
	ctx := r.Context()
	for _, directive := range strings.Split(r.Header.Get("Cache-Control"), ",") {
		if strings.EqualFold(strings.TrimSpace(directive), "no-cache") {
			ctx = devicecache.WithCacheBypass(ctx)
			break
		}
	}
	return devicecache.WithStatusRecorder(ctx)
}

func setCacheHeader(w http.ResponseWriter, rec *devicecache.StatusRecorder) {
	if status := rec.Status(); status != "" {
		w.Header().Set(HeaderCache, string(status))
	}
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, badRequest("device id must be a UUID")
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid JSON body")
	}
	return nil
}

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var in device.RegisterInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	view, err := s.devices.RegisterDevice(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", DevicesPath+"/"+view.ID.String())
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, page, err := parseListQuery(query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, rec := cacheContext(r)
	result, err := s.devices.ListDevices(ctx, filter, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	setCacheHeader(w, rec)
	writeJSON(w, http.StatusOK, newListResponse(DevicesPath, query, result))
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, rec := cacheContext(r)
	view, err := s.devices.GetDeviceByID(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	setCacheHeader(w, rec)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in device.UpdateInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	view, err := s.devices.UpdateDevice(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	deleted, err := s.devices.DeleteDevice(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !deleted {
		s.writeError(w, r, device.ErrDeviceNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
