package server_test

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agrinos/plantclassifier/internal/config"
	"github.com/agrinos/plantclassifier/server"
	refreshrepofake "github.com/agrinos/plantclassifier/token/refresh/repofake"
	fakeuserrepo "github.com/agrinos/plantclassifier/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	} `json:"user"`
	Tokens tokens `json:"tokens"`
}

func newTestServer(t *testing.T) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	t.Setenv("ENV", "DEV")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ALLOWED_ORIGINS", "https://plants.example.com")

	cfg, err := config.New()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	srv, err := server.New(cfg, server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}, server.WithLogger(zerolog.Nop()), server.WithRegistry(reg))
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, reg
}

func doJSON(t *testing.T, method, url, bearer string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func signIn(t *testing.T, baseURL, email, role string) authResponse {
	t.Helper()
	resp, data := doJSON(t, http.MethodPost, baseURL+"/api/auth/manual", "", map[string]string{"email": email, "role": role})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var out authResponse
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestNew_RequiresSecretAndRepos(t *testing.T) {
	t.Setenv("ENV", "PROD")
	t.Setenv("JWT_SECRET", "")
	cfg, err := config.New()
	require.NoError(t, err)

	_, err = server.New(cfg, server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	})
	require.Error(t, err)

	_, err = server.New(cfg, server.Repos{})
	require.Error(t, err)
}

func TestHealthAndNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, string(data))

	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/nothing-here", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"message":"Not found"}`, string(data))
}

func TestManualAuth(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("creates the user and issues tokens", func(t *testing.T) {
		out := signIn(t, ts.URL, " Farmer@Example.com ", "FARMER")
		require.NotEmpty(t, out.User.ID)
		require.Equal(t, "farmer@example.com", out.User.Email)
		require.Equal(t, "farmer", out.User.Name)
		require.Equal(t, "FARMER", out.User.Role)
		require.NotEmpty(t, out.Tokens.AccessToken)
		require.NotEmpty(t, out.Tokens.RefreshToken)

		again := signIn(t, ts.URL, "farmer@example.com", "ADMIN")
		require.Equal(t, out.User.ID, again.User.ID)
		require.Equal(t, "ADMIN", again.User.Role)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/auth/manual", "", map[string]string{"email": "a@b.c", "role": "GARDENER"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.JSONEq(t, `{"message":"Invalid role"}`, string(data))
	})

	t.Run("rejects a missing email", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/auth/manual", "", map[string]string{"role": "FARMER"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/auth/manual", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestMe(t *testing.T) {
	ts, _ := newTestServer(t)
	out := signIn(t, ts.URL, "pharma@example.com", "PHARMACEUTICAL_INDUSTRY")

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", out.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"id":"`+out.User.ID+`","email":"pharma@example.com","name":"pharma","role":"PHARMACEUTICAL_INDUSTRY"}`, string(data))

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshRotation(t *testing.T) {
	ts, _ := newTestServer(t)
	out := signIn(t, ts.URL, "agri@example.com", "AGRICULTURAL_INDUSTRY")

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/auth/refresh", "", map[string]string{"refreshToken": out.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var rotated tokens
	require.NoError(t, json.Unmarshal(data, &rotated))
	require.NotEqual(t, out.Tokens.RefreshToken, rotated.RefreshToken)
	require.NotEqual(t, out.Tokens.AccessToken, rotated.AccessToken)

	// The consumed token is rejected.
	resp, data = doJSON(t, http.MethodPost, ts.URL+"/api/auth/refresh", "", map[string]string{"refreshToken": out.Tokens.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.JSONEq(t, `{"message":"Invalid refresh token"}`, string(data))

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", rotated.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/refresh", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	ts, _ := newTestServer(t)
	out := signIn(t, ts.URL, "farmer@example.com", "FARMER")

	resp, data := doJSON(t, http.MethodPost, ts.URL+"/api/auth/logout", out.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"message":"Logged out"}`, string(data))

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/refresh", "", map[string]string{"refreshToken": out.Tokens.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func uploadImage(t *testing.T, url, bearer string, field string, image []byte) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "leaf.png")
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestPredictAndHistory(t *testing.T) {
	ts, _ := newTestServer(t)
	farmer := signIn(t, ts.URL, "farmer@example.com", "FARMER")
	other := signIn(t, ts.URL, "other@example.com", "ADMIN")
	png := []byte("\x89PNG\r\n\x1a\nfake-image-bytes")

	resp, data := uploadImage(t, ts.URL+"/api/predict", farmer.Tokens.AccessToken, "image", png)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var prediction struct {
		PredictionID string         `json:"predictionId"`
		Result       map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &prediction))
	require.NotEmpty(t, prediction.PredictionID)
	require.Equal(t, "Early Blight", prediction.Result["diseaseName"])

	resp, _ = uploadImage(t, ts.URL+"/api/predict", farmer.Tokens.AccessToken, "photo", png)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/predict/history", farmer.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []struct {
		PredictionID string `json:"predictionId"`
		Filename     string `json:"filename"`
		ContentType  string `json:"contentType"`
	}
	require.NoError(t, json.Unmarshal(data, &history))
	require.Len(t, history, 1)
	require.Equal(t, prediction.PredictionID, history[0].PredictionID)
	require.Equal(t, "leaf.png", history[0].Filename)
	require.Equal(t, "image/png", history[0].ContentType)

	// History is per user.
	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/predict/history", other.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(data))
}

func TestSensorsAndPlants(t *testing.T) {
	ts, _ := newTestServer(t)
	out := signIn(t, ts.URL, "agri@example.com", "AGRICULTURAL_INDUSTRY")

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/sensor/history", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/api/sensor/history", out.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var readings []map[string]any
	require.NoError(t, json.Unmarshal(data, &readings))
	require.NotEmpty(t, readings)
	require.Contains(t, readings[0], "nitrogen")

	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/plant", out.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var plants []struct {
		Species string `json:"species"`
	}
	require.NoError(t, json.Unmarshal(data, &plants))
	require.Len(t, plants, 4)
	require.Equal(t, "aloe-vera", plants[0].Species)

	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/plant/Turmeric", out.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(data), "Curcuma longa")

	resp, data = doJSON(t, http.MethodGet, ts.URL+"/api/plant/cactus", out.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"message":"Plant not found"}`, string(data))
}

func TestCors(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, tc := range []struct {
		origin  string
		allowed bool
	}{
		{origin: "http://localhost:5173", allowed: true},
		{origin: "https://plants.example.com", allowed: true},
		{origin: "https://evil.example.com", allowed: false},
	} {
		t.Run(tc.origin, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/predict", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()

			require.Equal(t, http.StatusNoContent, resp.StatusCode)
			if tc.allowed {
				require.Equal(t, tc.origin, resp.Header.Get("Access-Control-Allow-Origin"))
				require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
				require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
			} else {
				require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCompression(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
	gz, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	out := signIn(t, ts.URL, "farmer@example.com", "FARMER")
	doJSON(t, http.MethodPost, ts.URL+"/api/auth/refresh", "", map[string]string{"refreshToken": out.Tokens.RefreshToken})
	doJSON(t, http.MethodPost, ts.URL+"/api/auth/refresh", "", map[string]string{"refreshToken": out.Tokens.RefreshToken})

	resp, data := doJSON(t, http.MethodGet, ts.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := string(data)
	require.Contains(t, body, `plantclassifier_server_token_events_total{event="issued"} 1`)
	require.Contains(t, body, `plantclassifier_server_token_events_total{event="rotated"} 1`)
	require.Contains(t, body, `plantclassifier_server_token_events_total{event="rejected"} 1`)
	require.Contains(t, body, `plantclassifier_server_http_requests_total{method="POST",route="POST /api/auth/manual",status="200"} 1`)
}
