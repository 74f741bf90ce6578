package common

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	f()

	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestPrintBannerShowsTarget(t *testing.T) {
	config := NewDefaultConfig()
	config.App.BaseURL = "https://hub.example.com"
	config.App.LoginOrigin = "https://login.example.com"
	config.Credentials = Credentials{Email: "admin@example.com", Password: "s3cret-pw"}

	out := captureStdout(t, func() { PrintBanner(config) })

	assert.Contains(t, out, "HUBCHECK")
	assert.Contains(t, out, GetVersion())
	assert.Contains(t, out, "https://hub.example.com")
	assert.Contains(t, out, "https://login.example.com")
	assert.Contains(t, out, "headless 1280x800")
	assert.Contains(t, out, "Credentials:  set")
	assert.NotContains(t, out, "s3cret-pw")
	assert.NotContains(t, out, "admin@example.com")
}

func TestPrintBannerWithoutCredentials(t *testing.T) {
	config := NewDefaultConfig()
	config.Browser.Headless = false

	out := captureStdout(t, func() { PrintBanner(config) })

	assert.Contains(t, out, "headed 1280x800")
	assert.Contains(t, out, "not set")
}
