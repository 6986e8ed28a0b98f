package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"releasegate/config"
	"releasegate/testsupport"
	"releasegate/types"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// TestHelper runs the validation server against a local reference release
type TestHelper struct {
	Server    *httptest.Server
	Reference *httptest.Server
	Config    *config.Config
}

// referenceRelease is the zip served as the canonical release
func referenceRelease(t *testing.T) []byte {
	t.Helper()
	return testsupport.ZipBytes(t, map[string][]byte{
		"Aurora/01. X - Y.flac": testsupport.FLACBytes(t, testsupport.CompliantFLAC()),
		"Aurora/Cover.png":      testsupport.PNG,
	})
}

// newReferenceServer serves the reference release zip
func newReferenceServer(t *testing.T) *httptest.Server {
	t.Helper()
	body := referenceRelease(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

// testConfig returns a configuration isolated in a temp directory
func testConfig(t *testing.T, referenceURL string) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.ReferenceURL = referenceURL
	cfg.SettingsPath = filepath.Join(base, "settings.json")
	cfg.UploadDir = t.TempDir()
	cfg.HTTPTimeout = 10 * time.Second
	return cfg
}

// NewTestHelper creates a server wired exactly like `serve`
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reference := newReferenceServer(t)
	cfg := testConfig(t, reference.URL+"/release.zip")
	logger := log.New(io.Discard, "", 0)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := NewServer(ctx, cfg, NewValidator(cfg, logger, io.Discard), logger)
	server := httptest.NewServer(srv.Router)
	t.Cleanup(server.Close)

	return &TestHelper{Server: server, Reference: reference, Config: cfg}
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// decode reads and unmarshals a JSON response
func decode(t *testing.T, resp *http.Response, target interface{}) *http.Response {
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil {
		require.NoError(t, json.Unmarshal(body, target), string(body))
	}
	return resp
}

// GetJSON makes a GET request and unmarshals the JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	return decode(t, h.MakeRequest(t, http.MethodGet, path, nil), target)
}

// PostJSON makes a POST request with a JSON body and unmarshals the JSON response
func (h *TestHelper) PostJSON(t *testing.T, path string, requestBody, target interface{}) *http.Response {
	return decode(t, h.MakeRequest(t, http.MethodPost, path, requestBody), target)
}

// UploadArchive posts an archive as the multipart field "archive"
func (h *TestHelper) UploadArchive(t *testing.T, filename string, data []byte, target interface{}) *http.Response {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("archive", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(h.Server.URL+"/api/validations", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return decode(t, resp, target)
}

// WaitForJobCompletion polls a job until it reaches a final state
func (h *TestHelper) WaitForJobCompletion(t *testing.T, jobID string, timeout time.Duration) *types.ValidationJob {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		var response struct {
			Job *types.ValidationJob `json:"job"`
		}
		resp := h.GetJSON(t, "/api/validations/"+jobID, &response)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		if response.Job.Done() {
			return response.Job
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatalf("Job %s did not complete within timeout", jobID)
	return nil
}

// ConnectWebSocket connects to a WebSocket endpoint
func (h *TestHelper) ConnectWebSocket(t *testing.T, path string) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(h.Server.URL, "http") + path

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}
