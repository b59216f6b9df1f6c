package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rubiojr/edjs/pkg/api"
	"github.com/rubiojr/edjs/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestUploadLinkAndRenderEndToEnd(t *testing.T) {
	stack := StartStack(t, CreateTestConfig(t.TempDir()))
	client := stack.Server.Client()

	// Attach a file
	body, contentType := multipartBody(t, "file", "meeting-notes.txt", "agenda: ship it")
	req := stack.AuthorizedRequest(t, http.MethodPost, core.EndpointAttaches, body)
	req.Header.Set("Content-Type", contentType)
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	attached := decode[api.AttachesResponse](t, resp)

	assert.Equal(t, 1, attached.Success)
	assert.Equal(t, "meeting-notes.txt", attached.File.Name)
	assert.Equal(t, "txt", attached.File.Extension)
	assert.Equal(t, int64(15), attached.File.Size)
	require.True(t, strings.HasPrefix(attached.File.URL, "https://editor.example.com/uploads/"), attached.File.URL)

	// The public URL maps onto the uploads route
	diskName := strings.TrimPrefix(attached.File.URL, "https://editor.example.com/uploads/")
	resp, err = client.Get(stack.Server.URL + "/uploads/" + diskName)
	require.NoError(t, err)
	served, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "agenda: ship it", string(served))

	// Unfurl a page, then again after the page is gone to hit the cache
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head>
<meta property="og:title" content="Release notes">
<meta name="description" content="What changed this week">
<meta property="og:image" content="/cover.png">
</head><body></body></html>`)
	}))
	pageURL := page.URL + "/notes"

	fetchLink := func() api.LinkToolResponse {
		req := stack.AuthorizedRequest(t, http.MethodGet, core.EndpointLinkTool+"?url="+url.QueryEscape(pageURL), nil)
		resp, err := client.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[api.LinkToolResponse](t, resp)
	}

	link := fetchLink()
	assert.Equal(t, "Release notes", link.Meta.Title)
	assert.Equal(t, "What changed this week", link.Meta.Description)
	assert.Equal(t, page.URL+"/cover.png", link.Meta.Image.URL)

	page.Close()
	cached := fetchLink()
	assert.Equal(t, link.Meta, cached.Meta)

	// Render a document built from both plugin responses
	doc := map[string]any{
		"time": 1700000000000,
		"blocks": []any{
			map[string]any{"type": "header", "data": map[string]any{"text": "Weekly <script>x</script>sync", "level": 2}},
			map[string]any{"type": "attaches", "data": map[string]any{"file": attached.File, "title": ""}},
			map[string]any{"type": "linkTool", "data": map[string]any{"link": pageURL, "meta": link.Meta}},
		},
	}
	payload, err := json.Marshal(doc)
	require.NoError(t, err)

	resp, err = client.Post(stack.Server.URL+"/editorjs/render", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rendered := decode[api.RenderResponse](t, resp)

	assert.Contains(t, rendered.HTML, `<h2`)
	assert.NotContains(t, rendered.HTML, "<script>")
	assert.Contains(t, rendered.HTML, `href="`+attached.File.URL+`"`)
	assert.Contains(t, rendered.HTML, `<span class="editorjs-attaches__extension">TXT</span>`)
	assert.Contains(t, rendered.HTML, `<span class="editorjs-link__title">Release notes</span>`)
}

func TestPluginEndpointsDenyWithoutSession(t *testing.T) {
	stack := StartStack(t, CreateTestConfig(t.TempDir()))

	for _, path := range []string{core.EndpointAttaches, core.EndpointImageFile, core.EndpointImageURL, core.EndpointLinkTool} {
		req, err := http.NewRequest(http.MethodPost, stack.Server.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Referer", testReferer)

		resp, err := stack.Server.Client().Do(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
		got := decode[map[string]any](t, resp)
		assert.Equal(t, float64(0), got["success"], path)
	}

	uploads, err := stack.Store.Files.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, uploads)
}

func TestToolsAdvertiseAbsoluteEndpoints(t *testing.T) {
	stack := StartStack(t, CreateTestConfig(t.TempDir()))

	resp, err := stack.Server.Client().Get(stack.Server.URL + "/editorjs/tools")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tools := decode[api.ToolsResponse](t, resp)

	require.Contains(t, tools.Tools, "attaches")
	assert.Equal(t, "https://editor.example.com"+core.EndpointAttaches, tools.Tools["attaches"].Config["endpoint"])
}
