package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/automoto/ballpit-mp/shared/messages"
	"go.uber.org/zap"
)

const maxRequestBody = 1 << 16

// directory serves the relay registry over HTTP:
//
//	GET  /relays                  listings, ?open=1 hides full relays,
//	                              ?tick=30ms&reset=2s hides incompatible ones
//	POST /relays                  register, 201 with the assigned listing
//	POST /relays/{id}/heartbeat   refresh, 404 once the listing expired
//	GET  /health
type directory struct {
	reg *Registry
	log *zap.Logger
}

type relayList struct {
	Relays []messages.RelayListing `json:"relays"`
	Total  int                     `json:"total"`
}

func newMux(reg *Registry, log *zap.Logger) http.Handler {
	d := &directory{reg: reg, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /relays", d.list)
	mux.HandleFunc("POST /relays", d.register)
	mux.HandleFunc("POST /relays/{id}/heartbeat", d.heartbeat)
	mux.HandleFunc("GET /health", d.health)
	return allowAnyOrigin(mux)
}

func (d *directory) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	open := q.Get("open") == "1"
	tick, err1 := optionalDuration(q.Get("tick"))
	reset, err2 := optionalDuration(q.Get("reset"))
	if err := errors.Join(err1, err2); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	all := d.reg.List()
	out := relayList{Relays: make([]messages.RelayListing, 0, len(all)), Total: len(all)}
	for _, l := range all {
		if open && l.Full() {
			continue
		}
		if !l.Compatible(tick, reset) {
			continue
		}
		out.Relays = append(out.Relays, l)
	}
	d.write(w, http.StatusOK, out)
}

func (d *directory) register(w http.ResponseWriter, r *http.Request) {
	var l messages.RelayListing
	if !readJSON(w, r, &l) {
		return
	}
	if err := l.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	l.ID = d.reg.Register(l)
	d.log.Info("registered relay",
		zap.String("id", l.ID),
		zap.String("name", l.Name),
		zap.String("address", l.Address),
		zap.Int64("tick_ms", l.TickMs))
	d.write(w, http.StatusCreated, l)
}

func (d *directory) heartbeat(w http.ResponseWriter, r *http.Request) {
	var hb messages.RelayHeartbeat
	if !readJSON(w, r, &hb) {
		return
	}
	if !d.reg.Heartbeat(r.PathValue("id"), hb.Peers) {
		writeError(w, http.StatusNotFound, "unknown relay")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *directory) health(w http.ResponseWriter, _ *http.Request) {
	d.write(w, http.StatusOK, map[string]any{"status": "ok", "relays": d.reg.Len()})
}

func (d *directory) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.log.Warn("encode response", zap.Error(err))
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func optionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func allowAnyOrigin(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		h.ServeHTTP(w, r)
	})
}
