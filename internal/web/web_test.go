package web

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{"register.tmpl", "login.tmpl", "dashboard.tmpl"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestDashboardEscapesUsername(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = tmpl.ExecuteTemplate(&buf, "dashboard.tmpl", map[string]any{
		"Username":    "<script>alice</script>",
		"Email":       "a@x.com",
		"MemberSince": time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "&lt;script&gt;alice&lt;/script&gt;")
	assert.Contains(t, out, "Member since 2026-10-17")
}

func TestStaticServesStylesheet(t *testing.T) {
	f, err := Static().Open("style.css")
	require.NoError(t, err)
	defer f.Close()

	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(body), ".card")
}
