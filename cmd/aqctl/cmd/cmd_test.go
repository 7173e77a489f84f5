package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcity-air/internal/client"
	"smartcity-air/internal/models"
	"smartcity-air/internal/scenario"
	"smartcity-air/internal/session"
)

func setupCLITest(t *testing.T, api http.Handler) string {
	t.Helper()
	base := "http://127.0.0.1:1"
	if api != nil {
		srv := httptest.NewServer(api)
		t.Cleanup(srv.Close)
		base = srv.URL
	}
	sessionFile := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("AQ_API_BASE", base+"/")
	t.Setenv("AQ_SESSION_FILE", sessionFile)
	t.Setenv("AQ_TIMEOUT", "2s")
	return sessionFile
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	setupCLITest(t, nil)

	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"login", "logout", "scenario", "report", "watch", "simulate"} {
		assert.Contains(t, out, name)
	}
}

func TestInitConfig_NormalizesBase(t *testing.T) {
	setupCLITest(t, nil)

	_, err := execute(t, "scenario", "--at", "2026-10-19T14:32:00Z")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1", cfg.APIBase)
}

func TestScenario_LocalJSON(t *testing.T) {
	setupCLITest(t, nil)

	out, err := execute(t, "scenario", "--period", "7d", "--zone", "nord", "--pollutant", "NO2", "--at", "2026-10-19T14:32:00Z")
	require.NoError(t, err)

	var snap scenario.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	want := scenario.Compute(scenario.Filters{Period: "7d", Zone: "nord", Pollutant: "NO2"}, time.Date(2026, 10, 19, 14, 32, 0, 0, time.UTC))
	assert.Equal(t, want.Series, snap.Series)
	assert.Equal(t, "nord", snap.Zone)
}

func TestScenario_InvalidAt(t *testing.T) {
	setupCLITest(t, nil)

	_, err := execute(t, "scenario", "--at", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --at")
}

func TestReport_LocalFile(t *testing.T) {
	setupCLITest(t, nil)
	dir := t.TempDir()

	out, err := execute(t, "report", "--zone", "industrie", "--pollutant", "PM10", "--days", "30", "--out", dir)
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "rapport_zone-industrielle_pm10_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestLoginWhoamiLogout(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if r.URL.Path != "/api/auth/login" || req.Persona != "env" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.LoginResponse{
			Token: "tok-123",
			User:  models.User{Email: "marie.env@smartcity.demo", Name: "Marie Dubois", Persona: "env", Role: "Responsable Environnement"},
		})
	})
	sessionFile := setupCLITest(t, api)

	out, err := execute(t, "login", "--persona", "env", "--email", "", "--remember=true")
	require.NoError(t, err)
	assert.Contains(t, out, "Marie Dubois")

	s, err := session.NewFileStore(sessionFile).Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", s.Token)
	assert.True(t, s.Remember)

	out, err = execute(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "marie.env@smartcity.demo")

	out, err = execute(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Déconnecté")

	_, err = execute(t, "whoami")
	assert.ErrorIs(t, err, session.ErrNoSession)

	_, err = execute(t, "login", "--persona", "citizen", "--email", "", "--remember=false")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestLogin_WithoutRememberKeepsNoSession(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.LoginResponse{Token: "tok-456", User: models.User{Name: "Sam Citizen", Role: "Citoyen"}})
	})
	sessionFile := setupCLITest(t, api)
	require.NoError(t, session.NewFileStore(sessionFile).Save(session.Context{Token: "old", Remember: true}))

	out, err := execute(t, "login", "--persona", "citizen", "--email", "", "--remember=false")
	require.NoError(t, err)
	assert.Contains(t, out, "tok-456")

	_, err = session.NewFileStore(sessionFile).Load()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestLogin_RequiresPersonaOrEmail(t *testing.T) {
	setupCLITest(t, nil)

	_, err := execute(t, "login", "--persona", "", "--email", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--persona or --email")
}

func TestSimulate_SendsOneReadingPerZone(t *testing.T) {
	var calls atomic.Int32
	zones := make(chan string, 10)
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reading models.Reading
		_ = json.NewDecoder(r.Body).Decode(&reading)
		calls.Add(1)
		zones <- reading.Zone
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"accepted"}`))
	})
	setupCLITest(t, api)

	out, err := execute(t, "simulate", "--count", "1", "--interval", "10ms")
	require.NoError(t, err)
	assert.Contains(t, out, "round 0: 3/3 readings sent")
	assert.Equal(t, int32(3), calls.Load())

	close(zones)
	var got []string
	for z := range zones {
		got = append(got, z)
	}
	assert.Equal(t, scenario.SimulatedZones, got)
}

func TestSimulate_ServerDownContinues(t *testing.T) {
	setupCLITest(t, nil)

	out, err := execute(t, "simulate", "--count", "2", "--interval", "10ms")
	require.NoError(t, err)
	assert.Contains(t, out, "round 0: 0/3 readings sent")
	assert.Contains(t, out, "round 1: 0/3 readings sent")
}

func TestPrintState(t *testing.T) {
	snap := scenario.Compute(scenario.Filters{Zone: "centre"}, time.Date(2026, 10, 19, 14, 32, 0, 0, time.UTC))
	at := time.Date(2026, 10, 19, 14, 33, 0, 0, time.UTC)

	buf := new(bytes.Buffer)
	printState(buf, client.State[scenario.Snapshot]{Value: snap, UpdatedAt: at})
	assert.True(t, strings.HasPrefix(buf.String(), "14:33:00 [LIVE] 24h/centre/PM25 AQI "))

	buf.Reset()
	printState(buf, client.State[scenario.Snapshot]{Value: snap, Demo: true, UpdatedAt: at, Err: errors.New("boom")})
	assert.Contains(t, buf.String(), "[DEMO]")
	assert.Contains(t, buf.String(), "error: boom")
}
