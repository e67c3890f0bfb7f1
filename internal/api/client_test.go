package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LexAI/testutil"
)

func TestBearerHeaderAttached(t *testing.T) {
	srv := testutil.NewServer(t)
	u := srv.AddUser("ayse@example.com", "secret", false)
	token := srv.TokenFor(u)

	c := New(srv.URL, TokenFunc(func() string { return token }), Options{})
	me, err := c.Me(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, u.Email, me.Email)
	assert.Equal(t, "Bearer "+token, srv.LastAuthorization("GET /auth/me"))
}

func TestNoTokenNoHeader(t *testing.T) {
	srv := testutil.NewServer(t)
	c := New(srv.URL, TokenFunc(func() string { return "" }), Options{})

	_, err := c.Me(context.Background(), "")
	require.Error(t, err)
	assert.Empty(t, srv.LastAuthorization("GET /auth/me"))
	assert.True(t, IsUnauthorized(err))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Not authenticated", apiErr.Detail)
	assert.Equal(t, "Not authenticated", apiErr.Message())
}

func TestExplicitTokenOverridesSource(t *testing.T) {
	srv := testutil.NewServer(t)
	u := srv.AddUser("ali@example.com", "pw", false)
	token := srv.TokenFor(u)

	c := New(srv.URL, TokenFunc(func() string { return "stale" }), Options{})
	me, err := c.Me(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)
	assert.Equal(t, "Bearer "+token, srv.LastAuthorization("GET /auth/me"))
}

func TestLoginFormEncoded(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.AddUser("ayse@example.com", "secret", false)
	c := New(srv.URL, nil, Options{})

	tok, err := c.Login(context.Background(), "ayse@example.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)

	bodies := srv.Bodies("POST /auth/login")
	require.Len(t, bodies, 1)
	form, err := url.ParseQuery(bodies[0])
	require.NoError(t, err)
	assert.Equal(t, "ayse@example.com", form.Get("username"))
	assert.Equal(t, "secret", form.Get("password"))

	_, err = c.Login(context.Background(), "ayse@example.com", "wrong")
	assert.True(t, IsUnauthorized(err))
}

func TestAskSendsNullSessionID(t *testing.T) {
	srv := testutil.NewServer(t)
	u := srv.AddUser("ayse@example.com", "secret", false)
	token := srv.TokenFor(u)
	c := New(srv.URL, TokenFunc(func() string { return token }), Options{})

	resp, err := c.Ask(context.Background(), "Kıdem tazminatı nedir?", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.FeedbackID)

	bodies := srv.Bodies("POST /ask")
	require.Len(t, bodies, 1)
	assert.JSONEq(t, `{"query":"Kıdem tazminatı nedir?","session_id":null}`, bodies[0])

	id := resp.SessionID
	_, err = c.Ask(context.Background(), "İhbar süresi?", &id)
	require.NoError(t, err)

	detail, err := c.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 4)
}

func TestSessionLifecycle(t *testing.T) {
	srv := testutil.NewServer(t)
	u := srv.AddUser("ayse@example.com", "secret", false)
	token := srv.TokenFor(u)
	c := New(srv.URL, TokenFunc(func() string { return token }), Options{})
	ctx := context.Background()

	resp, err := c.Ask(ctx, "Soru", nil)
	require.NoError(t, err)

	require.NoError(t, c.RenameSession(ctx, resp.SessionID, "Yeni başlık"))
	list, err := c.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Yeni başlık", list[0].Title)

	vote, err := c.Vote(ctx, resp.FeedbackID, "like")
	require.NoError(t, err)
	assert.Equal(t, "like", vote.Vote)

	require.NoError(t, c.DeleteSession(ctx, resp.SessionID))
	_, err = c.GetSession(ctx, resp.SessionID)
	assert.True(t, IsNotFound(err))
}

func TestAdminEndpoints(t *testing.T) {
	srv := testutil.NewServer(t)
	admin := srv.AddUser("admin@example.com", "pw", true)
	other := srv.AddUser("user@example.com", "pw", false)
	token := srv.TokenFor(admin)
	c := New(srv.URL, TokenFunc(func() string { return token }), Options{})
	ctx := context.Background()

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	require.NoError(t, c.MakeAdmin(ctx, other.ID))
	got, err := c.GetUser(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	require.NoError(t, c.RemoveAdmin(ctx, other.ID))
	require.NoError(t, c.DeleteUser(ctx, other.ID))
	_, ok := srv.User(other.ID)
	assert.False(t, ok)
}

func TestSimilarRequestShape(t *testing.T) {
	srv := testutil.NewServer(t)
	u := srv.AddUser("ayse@example.com", "secret", false)
	token := srv.TokenFor(u)
	c := New(srv.URL, TokenFunc(func() string { return token }), Options{})

	resp, err := c.AnalyzeSimilar(context.Background(), SimilarRequest{Query: "işe iade", TopN: 5, IncludeSummaries: true})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SimilarCases)
	assert.JSONEq(t, `{"query":"işe iade","topn":5,"include_summaries":true}`, srv.Bodies("POST /similar/analyze")[0])
}

func TestValidationDetailKeptRaw(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","query"],"msg":"field required"}]}`))
	}))
	defer ts.Close()

	c := New(ts.URL, nil, Options{})
	_, err := c.Ask(context.Background(), "", nil)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Detail, "field required")
}
