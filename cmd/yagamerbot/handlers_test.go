package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deanogram/yagamerbot2.0/moderation"
	"github.com/deanogram/yagamerbot2.0/moderation/rules"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	eng := moderation.EngineTestFixture()
	eng.Rules = rules.DefaultRules()
	return newAPIServer(slog.Default(), eng)
}

func doJSON(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func TestHandleClassify(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	srv := testServer(t)

	rec := doJSON(srv, http.MethodPost, "/classify", `{"user_id": 100, "text": "hello there"}`)
	require.Equal(http.StatusOK, rec.Code)
	var v moderation.Verdict
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(v.Allowed)

	rec = doJSON(srv, http.MethodPost, "/classify", `{"user_id": 100, "text": "buy spam now"}`)
	require.Equal(http.StatusOK, rec.Code)
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &v))
	// second message within the minimum interval: plain rate denial
	assert.False(v.Allowed)
	assert.Equal(moderation.ReasonRateTooFast, v.Reason)

	rec = doJSON(srv, http.MethodPost, "/classify", `{"text": "no user"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestSanctionAuthorization(t *testing.T) {
	assert := assert.New(t)
	srv := testServer(t)

	// actor 99 holds no role
	rec := doJSON(srv, http.MethodPost, "/mute", `{"actor_id": 99, "user_id": 200, "duration_sec": 3600}`)
	assert.Equal(http.StatusForbidden, rec.Code)

	// actor 1 is the fixture owner
	rec = doJSON(srv, http.MethodPost, "/mute", `{"actor_id": 1, "user_id": 200, "duration_sec": 3600}`)
	assert.Equal(http.StatusOK, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/mutes", "")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Contains(rec.Body.String(), `"user_id":200`)

	rec = doJSON(srv, http.MethodPost, "/unmute", `{"actor_id": 1, "user_id": 200}`)
	assert.Equal(http.StatusOK, rec.Code)
}

func TestRoleEndpoints(t *testing.T) {
	assert := assert.New(t)
	srv := testServer(t)

	rec := doJSON(srv, http.MethodPost, "/promote", `{"actor_id": 1, "user_id": 2, "role": "admin"}`)
	assert.Equal(http.StatusOK, rec.Code)

	// admins cannot promote, only the owner can
	rec = doJSON(srv, http.MethodPost, "/promote", `{"actor_id": 2, "user_id": 3, "role": "moderator"}`)
	assert.Equal(http.StatusForbidden, rec.Code)

	rec = doJSON(srv, http.MethodPost, "/promote", `{"actor_id": 1, "user_id": 3, "role": "wizard"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)

	rec = doJSON(srv, http.MethodGet, "/admins", "")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("[2]\n", rec.Body.String())
}

func TestRuleEndpoints(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	srv := testServer(t)

	// admin gate
	rec := doJSON(srv, http.MethodPost, "/rules/words", `{"actor_id": 99, "value": "junkmail"}`)
	assert.Equal(http.StatusForbidden, rec.Code)

	rec = doJSON(srv, http.MethodPost, "/rules/words", `{"actor_id": 1, "value": "junkmail"}`)
	require.Equal(http.StatusOK, rec.Code)

	rec = doJSON(srv, http.MethodPost, "/classify", `{"user_id": 300, "text": "free junkmail inside"}`)
	require.Equal(http.StatusOK, rec.Code)
	var v moderation.Verdict
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &v))
	assert.False(v.Allowed)
	assert.Equal(moderation.ReasonBannedWord, v.Reason)

	rec = doJSON(srv, http.MethodPost, "/rules/links", `{"actor_id": 1, "value": ""}`)
	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	assert := assert.New(t)
	srv := testServer(t)

	rec := doJSON(srv, http.MethodGet, "/_health", "")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Contains(rec.Body.String(), `"status":"ok"`)
}
