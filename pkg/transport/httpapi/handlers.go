package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/flo1101/swgts-ingest/pkg/admission"
	"github.com/flo1101/swgts-ingest/pkg/log"
	"github.com/flo1101/swgts-ingest/pkg/metrics"
	"github.com/flo1101/swgts-ingest/pkg/session"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// handleServerStatus answers GET /server-status with the fields the
// original deployment has always returned: a version string, the server's
// uptime since launch, and the configured pending-byte buffer size.
func (s *Server) handleServerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, serverStatusResponse{
		Version:       s.Version,
		UptimeSeconds: time.Since(s.LaunchTime).Seconds(),
		BufferSize:    s.MaximumPendingBytes,
	})
}

// handleCreateContext answers POST /context/create.
func (s *Server) handleCreateContext(w http.ResponseWriter, r *http.Request) {
	var req createContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Filenames) == 0 {
		writeMessage(w, http.StatusBadRequest, "expected a json body with a non-empty filenames list")
		return
	}

	id, err := s.Registry.Create(r.Context(), req.Filenames)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.SessionsCreatedTotal.Inc()
	writeJSON(w, http.StatusOK, createContextResponse{Context: id.String()})
}

// handleUpload answers POST /context/{id}/reads.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "malformed context id")
		return
	}

	receivedAt := time.Now()
	var raw admission.RawBatch
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeMessage(w, http.StatusBadRequest, "expected a json body with a list of pairs of reads")
		return
	}

	decision, err := s.Controller.Admit(r.Context(), id, raw, s.MaximumPendingBytes, receivedAt)
	if err != nil {
		s.writeAdmissionError(w, err)
		return
	}

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, uploadResponse{
		ProcessedReads: decision.ProcessedReads,
		PendingBytes:   decision.PendingBytes,
	})
}

func (s *Server) writeAdmissionError(w http.ResponseWriter, err error) {
	var noSuch *session.ErrNoSuchContext
	if errors.As(err, &noSuch) {
		metrics.UploadsTotal.WithLabelValues("no_such_context").Inc()
		writeMessage(w, http.StatusNotFound, noSuch.Error())
		return
	}

	var admitErr *admission.Error
	if errors.As(err, &admitErr) {
		switch admitErr.Kind {
		case admission.KindBadShape:
			metrics.UploadsTotal.WithLabelValues("bad_shape").Inc()
			writeMessage(w, http.StatusBadRequest, admitErr.Message)
		case admission.KindPairCountMismatch:
			metrics.UploadsTotal.WithLabelValues("pair_count_mismatch").Inc()
			writeMessage(w, http.StatusBadRequest, admitErr.Message)
		case admission.KindChunkTooLarge:
			metrics.UploadsTotal.WithLabelValues("chunk_too_large").Inc()
			writeJSON(w, http.StatusRequestEntityTooLarge, uploadErrorResponse{
				Message:        admitErr.Message,
				RetryAfter:     admitErr.RetryAfter,
				ProcessedReads: admitErr.ProcessedReads,
			})
		case admission.KindBudgetExceeded:
			metrics.UploadsTotal.WithLabelValues("budget_exceeded").Inc()
			writeJSON(w, http.StatusUnprocessableEntity, uploadErrorResponse{
				Message:        admitErr.Message,
				RetryAfter:     admitErr.RetryAfter,
				PendingBytes:   admitErr.PendingBytes,
				ProcessedReads: admitErr.ProcessedReads,
			})
		default:
			writeMessage(w, http.StatusInternalServerError, admitErr.Message)
		}
		return
	}

	log.WithComponent("httpapi").Error().Err(err).Msg("upload failed")
	writeMessage(w, http.StatusInternalServerError, "internal error")
}

// handleClose answers POST /context/{id}/close.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "malformed context id")
		return
	}

	timer := metrics.NewTimer()
	result, err := s.Registry.Close(r.Context(), id, log.WithSessionID(id.String()))
	timer.ObserveDuration(metrics.CloseDuration)
	if err != nil {
		var noSuch *session.ErrNoSuchContext
		if errors.As(err, &noSuch) {
			writeMessage(w, http.StatusNotFound, noSuch.Error())
			return
		}
		var stillPending *session.ErrStillPending
		if errors.As(err, &stillPending) {
			writeJSON(w, http.StatusServiceUnavailable, closePendingResponse{
				RetryAfter:     stillPending.RetryAfter,
				ProcessedReads: stillPending.ProcessedReads,
				PendingBytes:   stillPending.PendingBytes,
			})
			return
		}
		log.WithComponent("httpapi").Error().Err(err).Msg("close failed")
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	metrics.SessionsClosedTotal.Inc()
	log.WithSessionID(id.String()).Info().
		Int64("reads_processed", result.ProcessedReads).
		Int("reads_saved", len(result.SavedReadIDs)).
		Msg("context closed")

	writeJSON(w, http.StatusOK, closeResponse{
		ReadsSaved:     result.SavedReadIDs,
		ReadsProcessed: result.ProcessedReads,
	})
}

// handleRequestData answers POST /context/{id}/request-data, used by the
// message transport variant to nudge the server into emitting a dataRequest
// toward a session's socket room.
func (s *Server) handleRequestData(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "malformed context id")
		return
	}

	exists, err := s.Registry.Exists(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !exists {
		writeMessage(w, http.StatusNotFound, "no such context")
		return
	}

	var req requestDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BytesToRequest <= 0 {
		writeMessage(w, http.StatusBadRequest, "expected a positive bytes_to_request")
		return
	}

	if s.Requester == nil {
		writeMessage(w, http.StatusInternalServerError, "message transport not configured")
		return
	}
	if err := s.Requester.RequestData(id.String(), req.BytesToRequest); err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}
