package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"pushledger/internal/constants"
	"pushledger/internal/errors"
	"pushledger/internal/models"
	"pushledger/internal/tracing"
)

// handleWebhook is the write path: signature verification, payload
// validation, idempotent persistence. Every delivery resolves to exactly one
// countable outcome. Duplicates still answer 200 so upstream retries are not
// treated as failures.
func (s *Server) handleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		raw, err := verifySignature(w, r, s.cfg.Webhook.Secret)
		if err != nil {
			// An oversized body is rejected before the signature is checked,
			// so it is a size error, not a delivery outcome.
			if errors.IsCode(err, errors.ErrCodePayloadTooLarge) {
				s.writeError(w, ctx, err)
				return
			}
			s.countOutcome(models.OutcomeInvalidSignature)
			s.logger.WithFields(errors.LogFields(err)).WithField(
				"request_id", tracing.GetRequestID(ctx)).Warn("Webhook signature rejected")
			s.writeError(w, ctx, errors.NewAuthError("invalid signature"))
			return
		}

		outcome, err := s.msgService.Ingest(ctx, raw)
		switch outcome {
		case models.OutcomeCreated, models.OutcomeDuplicate:
			s.countOutcome(outcome)
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		case models.OutcomeValidationError:
			s.countOutcome(outcome)
			s.writeError(w, ctx, err)
		default:
			// Storage failure: the request fails loudly, nothing is counted
			// as a delivery outcome.
			tracing.RecordError(ctx, err)
			errors.LogError(s.logger, err, "Webhook persistence failed")
			s.writeError(w, ctx, err)
		}
	}
}

// handleMessages is the read path over stored history. Pagination is bounded
// before the store is touched; filters combine with logical AND.
func (s *Server) handleMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query()

		params := models.QueryParams{
			Limit:  constants.DefaultQueryLimit,
			Offset: 0,
			Filters: models.QueryFilters{
				From:  query.Get("from"),
				Since: query.Get("since"),
				Q:     query.Get("q"),
			},
		}

		if raw := query.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				s.writeError(w, ctx, errors.NewInvalidArgumentError("limit", "must be an integer"))
				return
			}
			params.Limit = limit
		}
		if raw := query.Get("offset"); raw != "" {
			offset, err := strconv.Atoi(raw)
			if err != nil {
				s.writeError(w, ctx, errors.NewInvalidArgumentError("offset", "must be an integer"))
				return
			}
			params.Offset = offset
		}

		page, err := s.msgService.Query(ctx, params)
		if err != nil {
			s.writeError(w, ctx, err)
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stats, err := s.msgService.Stats(ctx)
		if err != nil {
			s.writeError(w, ctx, err)
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}

// countOutcome records one webhook delivery outcome so each is independently
// observable
func (s *Server) countOutcome(outcome models.IngestOutcome) {
	s.registry.IncrementCounter("webhook_requests_total", map[string]string{
		"result": string(outcome),
	}, "Webhook deliveries by outcome")
}

func (s *Server) writeError(w http.ResponseWriter, ctx context.Context, err error) {
	writeJSON(w, errors.HTTPStatusCode(err), errors.ToHTTPResponse(err, tracing.GetRequestID(ctx)))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
