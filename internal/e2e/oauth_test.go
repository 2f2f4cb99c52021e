package e2e

import (
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/alfred_assistant/internal/testutil"
)

// noRedirects stops at the consent redirect instead of following it to Google
func noRedirects(ts *testutil.TestServer) *http.Client {
	client := *ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &client
}

func startConsent(t *testing.T, ts *testutil.TestServer) (state string, cookie *http.Cookie) {
	t.Helper()

	resp, err := noRedirects(ts).Get(ts.BaseURL() + "/api/auth/google")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state = location.Query().Get("state")
	require.NotEmpty(t, state)

	for _, c := range resp.Cookies() {
		if c.Name == "alfred_oauth_state" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "state cookie not set")
	assert.Equal(t, state, cookie.Value)
	return state, cookie
}

func callback(t *testing.T, ts *testutil.TestServer, code, state string, cookie *http.Cookie) (int, string) {
	t.Helper()

	q := url.Values{"code": {code}, "state": {state}}
	req, err := http.NewRequest(http.MethodGet, ts.BaseURL()+"/api/auth/google/callback?"+q.Encode(), nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestGoogleOAuthFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)

	// Before consent calendar actions ask for authorization
	ts.LLM.Reply(`{"intent":"calendar","message":"Booking.","params":{"title":"Dentist","date":"friday","time":"9am"}}`)
	_, resp := ts.Say("book the dentist friday at 9am")
	require.NotNil(t, resp.ActionResult)
	require.False(t, resp.ActionResult.Success)

	state, cookie := startConsent(t, ts)

	status, page := callback(t, ts, testutil.FakeCode, state, cookie)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, page, "OAuth Authorization Successful!")
	assert.Contains(t, page, "GOOGLE_REFRESH_TOKEN="+testutil.FakeRefreshToken)
	assert.Contains(t, page, "The refresh token has been saved")

	t.Run("token status reports the stored token", func(t *testing.T) {
		status, body := ts.GetJSON("/api/auth/google/status")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "oauth", body["mode"])
		assert.Equal(t, true, body["hasRefreshToken"])
		assert.Equal(t, true, body["persisted"])

		stored, ok := body["stored"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, stored["hasToken"])
		assert.NotContains(t, stored, "refreshToken")
	})

	t.Run("calendar actions use the stored token", func(t *testing.T) {
		_, resp := ts.Say("book the dentist friday at 9am")
		require.NotNil(t, resp.ActionResult)
		assert.True(t, resp.ActionResult.Success)

		data, ok := resp.ActionResult.Data.(map[string]any)
		require.True(t, ok)
		// Friday after Wednesday 2026-10-14, 9am EDT
		assert.Equal(t, "2026-10-16T13:00:00.000Z", data["startTime"])
	})

	t.Run("disconnect forgets the token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, ts.BaseURL()+"/api/auth/google", nil)
		require.NoError(t, err)
		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		_, body := ts.GetJSON("/api/auth/google/status")
		assert.Equal(t, false, body["hasRefreshToken"])

		_, reply := ts.Say("book the dentist friday at 9am")
		require.NotNil(t, reply.ActionResult)
		assert.False(t, reply.ActionResult.Success)
		assert.Contains(t, reply.ActionResult.Message, "Missing refresh token")
	})

	assert.Len(t, ts.Calendar.Events(), 1)
}

func TestGoogleOAuthCallback_StateMismatch(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, cookie := startConsent(t, ts)

	status, _ := callback(t, ts, testutil.FakeCode, "forged-state", cookie)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = callback(t, ts, testutil.FakeCode, cookie.Value, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	info, err := ts.DB.GetGoogleTokenInfo()
	require.NoError(t, err)
	assert.False(t, info.HasToken)
}

func TestGoogleOAuthCallback_BadCode(t *testing.T) {
	ts := testutil.NewTestServer(t)

	state, cookie := startConsent(t, ts)
	status, body := callback(t, ts, "expired-code", state, cookie)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "Failed to complete OAuth flow")
}

func TestGoogleOAuthCallback_NoCode(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := ts.Client().Get(ts.BaseURL() + "/api/auth/google/callback")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestGoogleOAuth_WithoutDatabase(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.WithoutDatabase())

	state, cookie := startConsent(t, ts)
	status, page := callback(t, ts, testutil.FakeCode, state, cookie)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, page, "GOOGLE_REFRESH_TOKEN="+testutil.FakeRefreshToken)
	assert.NotContains(t, page, "The refresh token has been saved")

	req, err := http.NewRequest(http.MethodDelete, ts.BaseURL()+"/api/auth/google", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
