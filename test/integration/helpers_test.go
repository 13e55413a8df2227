// Package integration exercises a running plf server. Start one from the
// repository root with
//
//	plf serve --dir test/integration/testdata
//
// and point the tests at it with PLF_SERVER_URL and PLF_GRPC_ENDPOINT.
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// testServer holds the base URL of a running plf server.
var testServer string

func init() {
	testServer = os.Getenv("PLF_SERVER_URL")
	if testServer == "" {
		testServer = "http://localhost:8787"
	}
	// Ensure the URL has a scheme.
	if !strings.HasPrefix(testServer, "http://") && !strings.HasPrefix(testServer, "https://") {
		testServer = "http://" + testServer
	}
}

// requireServer skips the test when no server answers the health check.
func requireServer(t *testing.T) {
	t.Helper()
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(strings.TrimRight(testServer, "/") + "/healthz")
	if err != nil {
		t.Skipf("plf server not reachable at %s: %v", testServer, err)
	}
	resp.Body.Close()
}

// loadScript reads a .plf script from the testdata directory.
func loadScript(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "scripts", name))
	if err != nil {
		t.Fatalf("failed to load script %s: %v", name, err)
	}
	return string(data)
}

// apiURL builds a full URL for the given API path.
func apiURL(path string) string {
	return strings.TrimRight(testServer, "/") + "/v1/" + path
}

// response is a decoded API reply.
type response struct {
	Status int
	Body   map[string]interface{}
}

func post(t *testing.T, path string, body map[string]interface{}) response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(apiURL(path), "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode error: %v: %s", err, raw)
	}
	return response{Status: resp.StatusCode, Body: out}
}

// loadPopulation posts a script and requires success.
func loadPopulation(t *testing.T, script string, seed *int) []map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{"script": script}
	if seed != nil {
		body["seed"] = *seed
	}
	r := post(t, "populations:load", body)
	if r.Status != http.StatusOK {
		t.Fatalf("load failed with status %d: %v", r.Status, r.Body)
	}
	raw, _ := r.Body["organisms"].([]interface{})
	orgs := make([]map[string]interface{}, len(raw))
	for i, o := range raw {
		orgs[i], _ = o.(map[string]interface{})
	}
	return orgs
}

// loadPopulationExpectError posts a script and returns the error body.
func loadPopulationExpectError(t *testing.T, script string, wantStatus int) map[string]interface{} {
	t.Helper()
	r := post(t, "populations:load", map[string]interface{}{"script": script})
	if r.Status != wantStatus {
		t.Fatalf("expected status %d, got %d: %v", wantStatus, r.Status, r.Body)
	}
	errBody, ok := r.Body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error body, got %v", r.Body)
	}
	return errBody
}

func countKind(orgs []map[string]interface{}, kind string) int {
	n := 0
	for _, o := range orgs {
		if o["kind"] == kind {
			n++
		}
	}
	return n
}
