package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/config"
)

// fakeERP answers the token endpoint, the OData entity and the
// transcription endpoint from one server.
type fakeERP struct {
	t          *testing.T
	server     *httptest.Server
	tokens     atomic.Int32
	reads      atomic.Int32
	created    map[string]any
	transcript string
	uploaded   string
}

func newFakeERP(t *testing.T) *fakeERP {
	t.Helper()
	f := &fakeERP{t: t, transcript: "Account AK005, name Abdo Khoury, group eighty."}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeERP) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/tenant-1/oauth2/v2.0/token":
		f.tokens.Add(1)
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3599}`))

	case r.URL.Path == "/data/CustomersV2" && r.Method == http.MethodGet:
		f.reads.Add(1)
		assert.Equal(f.t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"value": []map[string]any{
			{"CustomerAccount": "AK001", "OrganizationName": "Contoso Retail", "CustomerGroupId": "10", "SalesCurrencyCode": "USD", "DataAreaId": "usmf"},
			{"CustomerAccount": "AK002", "OrganizationName": "Fabrikam", "CustomerGroupId": "80", "SalesCurrencyCode": "EUR", "DataAreaId": "demf"},
		}})

	case r.URL.Path == "/data/CustomersV2" && r.Method == http.MethodPost:
		var payload map[string]any
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&payload))
		f.created = payload
		payload["DataAreaId"] = "usmf"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(payload)

	case r.URL.Path == "/v1/audio/transcriptions":
		if _, header, err := r.FormFile("file"); assert.NoError(f.t, err) {
			f.uploaded = header.Filename
		}
		fmt.Fprintf(w, `{"text":%q}`, f.transcript)

	default:
		http.NotFound(w, r)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func (f *fakeERP) config(t *testing.T, extra string) string {
	return writeConfig(t, fmt.Sprintf(`
d365:
  tenant_id: tenant-1
  client_id: client-1
  client_secret: secret-1
  environment_url: %[1]s
  authority_host: %[1]s
retry:
  unit: 1ms
log:
  level: error
%[2]s`, f.server.URL, extra))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_RetrieveIsDefault(t *testing.T) {
	erp := newFakeERP(t)

	out, err := runCLI(t, "-c", erp.config(t, ""))
	require.NoError(t, err)

	assert.Contains(t, out, "Authenticated successfully.")
	assert.Contains(t, out, "D365 F&O CUSTOMERS - 2 records")
	assert.Contains(t, out, "Contoso Retail")
	assert.Contains(t, out, "Total: 2 customers")
	assert.EqualValues(t, 1, erp.reads.Load())
}

func TestRun_RetrieveDryRun(t *testing.T) {
	erp := newFakeERP(t)

	out, err := runCLI(t, "-c", erp.config(t, ""), "retrieve", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "Dry run complete")
	assert.EqualValues(t, 1, erp.tokens.Load())
	assert.Zero(t, erp.reads.Load())
}

func TestRun_Create(t *testing.T) {
	erp := newFakeERP(t)

	out, err := runCLI(t, "-c", erp.config(t, ""),
		"create", "--account", "AK005", "--name", "Abdo Khoury", "--group", "80")
	require.NoError(t, err)

	assert.Contains(t, out, "CUSTOMER CREATED SUCCESSFULLY")
	assert.Contains(t, out, "usmf")
	assert.Equal(t, map[string]any{
		"CustomerAccount":   "AK005",
		"OrganizationName":  "Abdo Khoury",
		"CustomerGroupId":   "80",
		"SalesCurrencyCode": "USD",
		"DataAreaId":        "usmf",
	}, erp.created)
}

func TestRun_CreateRequiresAllFields(t *testing.T) {
	erp := newFakeERP(t)

	_, err := runCLI(t, "-c", erp.config(t, ""), "create", "--account", "AK005")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OrganizationName, CustomerGroupId")
	assert.Zero(t, erp.tokens.Load())
}

func TestRun_MissingSettings(t *testing.T) {
	for _, key := range []string{"D365_TENANT_ID", "D365_CLIENT_ID", "D365_CLIENT_SECRET", "D365_ENVIRONMENT_URL"} {
		t.Setenv(key, "")
	}

	_, err := runCLI(t, "-c", writeConfig(t, "log:\n  level: error\n"), "retrieve")

	var missing *config.MissingSettingsError
	require.ErrorAs(t, err, &missing)
	assert.Len(t, missing.Settings, 4)
}

func TestRun_UnknownCommand(t *testing.T) {
	erp := newFakeERP(t)

	_, err := runCLI(t, "-c", erp.config(t, ""), "delete")
	assert.ErrorContains(t, err, `unknown command "delete"`)
}

func TestRun_MissingExplicitConfig(t *testing.T) {
	_, err := runCLI(t, "-c", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "loading config")
}

func voiceConfig(erp *fakeERP) string {
	return fmt.Sprintf(`
speech:
  backend: openai
extractor:
  backend: pattern
openai:
  api_key: test-key
  base_url: %s/v1/
`, erp.server.URL)
}

func TestRun_Voice(t *testing.T) {
	erp := newFakeERP(t)
	audioPath := filepath.Join(t.TempDir(), "note.ogg")
	require.NoError(t, os.WriteFile(audioPath, []byte("OggS"), 0o600))

	out, err := runCLI(t, "-c", erp.config(t, voiceConfig(erp)), "voice", "--audio", audioPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Transcript: Account AK005, name Abdo Khoury, group eighty.")
	assert.Contains(t, out, "Extracted:  Account=AK005, Name=Abdo Khoury, Group=80")
	assert.Contains(t, out, "Customer created successfully in D365 F&O!")
	assert.Equal(t, "80", erp.created["CustomerGroupId"])
	assert.Equal(t, "audio.ogg", erp.uploaded)
}

func TestRun_VoiceUploadsNonOggFormats(t *testing.T) {
	erp := newFakeERP(t)
	audioPath := filepath.Join(t.TempDir(), "note.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("ID3"), 0o600))

	_, err := runCLI(t, "-c", erp.config(t, voiceConfig(erp)), "voice", "--audio", audioPath)
	require.NoError(t, err)

	assert.Equal(t, "audio.mp3", erp.uploaded)
}

func TestRun_VoiceExtractionFailure(t *testing.T) {
	erp := newFakeERP(t)
	erp.transcript = "Please add a new customer."
	audioPath := filepath.Join(t.TempDir(), "note.ogg")
	require.NoError(t, os.WriteFile(audioPath, []byte("OggS"), 0o600))

	out, err := runCLI(t, "-c", erp.config(t, voiceConfig(erp)), "voice", "--audio", audioPath)
	assert.ErrorContains(t, err, "extraction stage")
	assert.Contains(t, out, "Reply:")
	assert.Nil(t, erp.created)
}

func TestRun_VoiceRejectsUnknownFormat(t *testing.T) {
	erp := newFakeERP(t)

	_, err := runCLI(t, "-c", erp.config(t, voiceConfig(erp)), "voice", "--audio", "notes.txt")
	assert.ErrorContains(t, err, "unsupported audio file")
}

func TestRun_VoiceAzureRejectsUndecodableFormat(t *testing.T) {
	erp := newFakeERP(t)
	audioPath := filepath.Join(t.TempDir(), "note.m4a")
	require.NoError(t, os.WriteFile(audioPath, []byte("ftyp"), 0o600))

	cfg := erp.config(t, `
speech:
  backend: azure
azure:
  speech_key: key
  speech_region: westeurope
`)
	_, err := runCLI(t, "-c", cfg, "voice", "--audio", audioPath)
	assert.ErrorContains(t, err, "cannot decode audio/mp4")
	assert.Zero(t, erp.tokens.Load())
}
