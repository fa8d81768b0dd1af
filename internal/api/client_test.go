package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendash/cansim/pkg/telemetry"
)

func TestHealthcheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthcheck" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	assert.NoError(t, c.Healthcheck())
}

func TestHealthcheckFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	assert.Error(t, c.Healthcheck())
}

func TestUpload(t *testing.T) {
	var gotSecret, gotProfile, gotFilename string
	var gotFileBytes int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/recordings/add", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotSecret = r.FormValue("secret")
		gotProfile = r.FormValue("profile")
		gotFilename = r.FormValue("filename")

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		n, err := file.Seek(0, 2)
		require.NoError(t, err)
		gotFileBytes = n

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "drive_20260314_090000.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("recording payload"), 0644))

	c := New(srv.URL, "hunter2")
	err := c.Upload(path, telemetry.UploadMetadata{
		Profile:     "morning commute",
		VehicleID:   "SIM-1",
		DurationSec: 92.5,
		Snapshots:   1850,
	})
	require.NoError(t, err)

	assert.Equal(t, "hunter2", gotSecret)
	assert.Equal(t, "morning commute", gotProfile)
	assert.Equal(t, "drive_20260314_090000.json.gz", gotFilename)
	assert.EqualValues(t, len("recording payload"), gotFileBytes)
}

func TestUploadRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "recording.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	c := New(srv.URL, "bad-key")
	assert.Error(t, c.Upload(path, telemetry.UploadMetadata{}))
}
