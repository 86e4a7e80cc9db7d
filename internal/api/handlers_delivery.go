package api

import (
	"encoding/json"
	"net/http"

	"ledgerport/internal/core"
	"ledgerport/internal/regime"
)

type regimeResponse struct {
	Code            string            `json:"code"`
	Label           string            `json:"label"`
	RequiredColumns []string          `json:"required_columns"`
	TaxRates        map[string]string `json:"tax_rates,omitempty"`
	DefaultFormat   string            `json:"default_format"`
	Software        []string          `json:"software,omitempty"`
	Separator       string            `json:"separator"`
	Encoding        string            `json:"encoding"`
}

func (s *Server) handleListRegimes(w http.ResponseWriter, _ *http.Request) {
	defs := regime.Definitions()
	res := make([]regimeResponse, 0, len(defs))
	for _, def := range defs {
		rates := make(map[string]string, len(def.TaxRates))
		for name, rate := range def.TaxRates {
			rates[name] = rate.String()
		}
		res = append(res, regimeResponse{
			Code:            string(def.Code),
			Label:           def.Label,
			RequiredColumns: def.RequiredColumns,
			TaxRates:        rates,
			DefaultFormat:   string(def.DefaultFormat),
			Software:        def.Software,
			Separator:       string(def.Separator),
			Encoding:        def.Encoding,
		})
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDeliveryTest probes a delivery configuration without sending a
// report, so a task's credentials can be checked when they are saved.
func (s *Server) handleDeliveryTest(w http.ResponseWriter, r *http.Request) {
	var cfg core.DeliveryConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	if err := validateDelivery(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_delivery", err.Error())
		return
	}
	channel, err := s.channels.Build(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_delivery", err.Error())
		return
	}
	if err := channel.Test(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "delivery_unreachable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleWorkerPoll runs one poll cycle on demand, for callers that drive the
// scheduler from an external cron instead of the built-in loop.
func (s *Server) handleWorkerPoll(w http.ResponseWriter, r *http.Request) {
	dispatched := s.worker.PollOnce(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"dispatched": dispatched})
}
