package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	imageField     = "image"
	maxUploadBytes = 10 << 20
)

// PredictHandler analyses one uploaded image and records it in the caller's history.
func (s *Server) PredictHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFromContext(r.Context())

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
				return
			}
			writeError(w, http.StatusBadRequest, "Expected a multipart/form-data upload")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile(imageField)
		if err != nil {
			writeError(w, http.StatusBadRequest, "No image uploaded")
			return
		}
		defer file.Close()

		sniff := make([]byte, 512)
		n, err := io.ReadFull(file, sniff)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Unreadable image")
			return
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(sniff[:n])
		}
		if n == 0 {
			writeError(w, http.StatusBadRequest, "Empty image")
			return
		}

		prediction := Prediction{
			ID:          uuid.New().String(),
			UserID:      claims.Subject,
			Filename:    filepath.Base(header.Filename),
			ContentType: contentType,
			Size:        header.Size,
			CreatedAt:   NowTimeFunc().UTC(),
			Result:      analysisFor(claims.Role),
		}
		s.records.AddPrediction(prediction)
		s.metrics.recordPrediction(string(claims.Role))
		s.log.Info().
			Str("user_id", claims.Subject).
			Str("prediction_id", prediction.ID).
			Int64("size", prediction.Size).
			Msg("image analysed")

		writeJSON(w, http.StatusOK, map[string]any{
			"predictionId": prediction.ID,
			"result":       prediction.Result,
		})
	}
}

func (s *Server) PredictionHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := claimsFromContext(r.Context())
		writeJSON(w, http.StatusOK, s.records.Predictions(claims.Subject))
	}
}

func (s *Server) SensorHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.records.Sensors())
	}
}

func (s *Server) PlantsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.records.Plants())
	}
}

func (s *Server) PlantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plant, ok := s.records.Plant(r.PathValue("species"))
		if !ok {
			writeError(w, http.StatusNotFound, "Plant not found")
			return
		}
		writeJSON(w, http.StatusOK, plant)
	}
}
