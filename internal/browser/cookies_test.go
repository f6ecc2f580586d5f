package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookie_ToPlaywright(t *testing.T) {
	c := Cookie{
		Name:     "li_at",
		Value:    "secret",
		Domain:   ".linkedin.com",
		Expires:  1893456000,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	}

	oc := c.ToPlaywright()
	assert.Equal(t, "li_at", oc.Name)
	assert.Equal(t, "secret", oc.Value)
	require.NotNil(t, oc.Domain)
	assert.Equal(t, ".linkedin.com", *oc.Domain)
	require.NotNil(t, oc.Path)
	assert.Equal(t, "/", *oc.Path)
	assert.Nil(t, oc.URL)
	require.NotNil(t, oc.Expires)
	assert.Equal(t, float64(1893456000), *oc.Expires)
	assert.True(t, *oc.HttpOnly)
	assert.True(t, *oc.Secure)
	assert.Equal(t, playwright.SameSiteAttributeNone, oc.SameSite)
}

func TestCookie_ToPlaywrightWithoutDomainUsesURL(t *testing.T) {
	oc := Cookie{Name: "JSESSIONID", Value: "v"}.ToPlaywright()

	require.NotNil(t, oc.URL)
	assert.Equal(t, linkedInURL, *oc.URL)
	assert.Nil(t, oc.Domain)
	assert.Nil(t, oc.Expires)
	assert.Nil(t, oc.HttpOnly)
	assert.Nil(t, oc.SameSite)
}

func TestSaveAndLoadCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cookies.json")
	in := []playwright.Cookie{
		{Name: "li_at", Value: "a", Domain: ".linkedin.com", Path: "/", Secure: true, SameSite: playwright.SameSiteAttributeLax},
		{Name: "lang", Value: "en", Domain: ".linkedin.com", Path: "/"},
	}

	require.NoError(t, SaveCookies(path, in))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "li_at", out[0].Name)
	assert.Equal(t, playwright.SameSiteAttributeLax, out[0].SameSite)
	assert.Nil(t, out[1].SameSite)
}

func TestLoadCookies_Errors(t *testing.T) {
	_, err := LoadCookies(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = LoadCookies(bad)
	assert.Error(t, err)
}

func TestLoadCookies_SkipsUnnamed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":""},{"name":"a","value":"b"}]`), 0o600))

	out, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Name)
}
