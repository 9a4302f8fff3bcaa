package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/server/models"
	"github.com/google/uuid"
)

func (s *Server) blobAccessToken(w http.ResponseWriter, r *http.Request) {
	var req models.BlobAccessTokenData
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	info, err := s.blobs.IssueAccessToken(r.Context(), userFromContext(r.Context()), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, models.BlobAccessTokenReturn{BlobAccessInfo: info})
}

func (s *Server) putBlob(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ref, err := s.blobs.Put(r.Context(), userFromContext(r.Context()),
		r.Header.Get(common.StorageAccessTokenHeaderName), r.URL.Query().Get("blobHash"), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, ref)
}

func (s *Server) getBlob(w http.ResponseWriter, r *http.Request) {
	var locator models.BlobLocator
	if err := decodeBody(r, &locator); err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.blobs.Get(r.Context(), userFromContext(r.Context()),
		r.Header.Get(common.StorageAccessTokenHeaderName), locator)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBinary(w, data)
}

func (s *Server) registerFileData(w http.ResponseWriter, r *http.Request) {
	var post models.FileDataDataPost
	if err := decodeBody(r, &post); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.files.Register(r.Context(), userFromContext(r.Context()), post)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, models.FileDataReturnPost{FileData: id})
}

func (s *Server) putFileData(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("fileDataId")
	if id == "" {
		s.writeError(w, r, fmt.Errorf("%w: missing fileDataId", common.ErrorBadRequest))
		return
	}
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.files.Upload(r.Context(), userFromContext(r.Context()), id, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getFileData(w http.ResponseWriter, r *http.Request) {
	var get models.FileDataDataGet
	if err := decodeBody(r, &get); err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := s.files.Download(r.Context(), userFromContext(r.Context()), get)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBinary(w, data)
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", common.ErrorBadRequest, err)
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("%w: body too large", common.ErrorBadRequest)
	}
	return data, nil
}

// decodeBody reads a JSON entity from the _body query parameter or, when
// that is absent, from the request body.
func decodeBody(r *http.Request, v any) error {
	var raw []byte
	if q := r.URL.Query().Get("_body"); q != "" {
		raw = []byte(q)
	} else {
		data, err := readBody(r)
		if err != nil {
			return err
		}
		raw = data
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", common.MediaTypeJSON)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBinary(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", common.MediaTypeBinary)
	_, _ = w.Write(data)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status of err. Every error gets an Error-Id
// that is also logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	errorID := uuid.NewString()
	w.Header().Set(common.ErrorIDHeaderName, errorID)

	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error_id", errorID, "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	s.logger.Debug(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "error_id", errorID, "error", err)
	http.Error(w, err.Error(), status)
}
