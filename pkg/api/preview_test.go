package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rubiojr/edjs/pkg/gate"
	"github.com/rubiojr/edjs/pkg/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialPreview(t *testing.T, env *testEnv, room string, authed bool) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/editorjs/preview"
	if room != "" {
		wsURL += "?room=" + room
	}
	header := http.Header{}
	if authed {
		header.Set("Referer", testReferer)
		header.Set("Cookie", gate.DefaultSessionCookie+"="+env.token)
	}
	return websocket.DefaultDialer.Dial(wsURL, header)
}

func readEvent(t *testing.T, conn *websocket.Conn) realtime.PreviewEvent {
	t.Helper()
	var ev realtime.PreviewEvent
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestPreviewDenied(t *testing.T) {
	env := newTestEnv(t)
	_, resp, err := dialPreview(t, env, "", false)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPreviewRendersAndFansOut(t *testing.T) {
	env := newTestEnv(t)

	a, _, err := dialPreview(t, env, "doc-1", true)
	require.NoError(t, err)
	defer a.Close()
	b, _, err := dialPreview(t, env, "doc-1", true)
	require.NoError(t, err)
	defer b.Close()

	require.Eventually(t, func() bool { return env.api.hub.RoomSize("doc-1") == 2 }, 2*time.Second, 10*time.Millisecond)

	doc := `{"blocks":[{"type":"paragraph","data":{"text":"live"}}]}`
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(doc)))

	own := readEvent(t, a)
	assert.Equal(t, "preview", own.Type)
	assert.Equal(t, `<p class="editorjs-paragraph">live</p>`, own.HTML)

	other := readEvent(t, b)
	assert.Equal(t, own.HTML, other.HTML)
	assert.Equal(t, "doc-1", other.Room)
}

func TestPreviewInvalidDocument(t *testing.T) {
	env := newTestEnv(t)

	conn, _, err := dialPreview(t, env, "", true)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"blocks":`)))
	ev := readEvent(t, conn)
	assert.Equal(t, "error", ev.Type)
	assert.NotEmpty(t, ev.Error)

	// the session survives a bad frame
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"blocks":[]}`)))
	ev = readEvent(t, conn)
	assert.Equal(t, "preview", ev.Type)
	assert.Equal(t, "", ev.HTML)
}
