package similar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LexAI/internal/api"
	"LexAI/testutil"
)

func newView(t *testing.T) (*testutil.Server, *View) {
	t.Helper()
	srv := testutil.NewServer(t)
	u := srv.AddUser("ayse@example.com", "pw", false)
	token := srv.TokenFor(u)
	client := api.New(srv.URL, api.TokenFunc(func() string { return token }), api.Options{})
	return srv, NewView(client, nil)
}

func TestSearch(t *testing.T) {
	srv, v := newView(t)

	require.NoError(t, v.Search(context.Background(), "işe iade davası"))
	assert.Equal(t, "işe iade davası", v.Query())
	assert.Len(t, v.Cases(), 2)
	require.Len(t, v.Laws(), 1)
	assert.Equal(t, "İş Kanunu", v.Laws()[0].LawName)

	bodies := srv.Bodies("POST /similar/analyze")
	require.Len(t, bodies, 1)
	assert.JSONEq(t, `{"query":"işe iade davası","topn":5,"include_summaries":true}`, bodies[0])
}

func TestSearchBlankQuery(t *testing.T) {
	srv, v := newView(t)

	require.NoError(t, v.Search(context.Background(), "  "))
	assert.Equal(t, 0, srv.Count("POST /similar/analyze"))
	assert.Empty(t, v.Cases())
}

func TestSearchFailureKeepsResults(t *testing.T) {
	srv, v := newView(t)
	ctx := context.Background()
	require.NoError(t, v.Search(ctx, "ilk"))

	srv.Fail("POST /similar/analyze", 500, 1)
	require.Error(t, v.Search(ctx, "ikinci"))
	assert.Equal(t, "ilk", v.Query())
	assert.Len(t, v.Cases(), 2)
}

func TestCaseTitle(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name string
		item api.CaseItem
		want string
	}{
		{"case type", api.CaseItem{DavaTuru: str("İşe İade"), KararMetni: str("x")}, "İşe İade"},
		{"decision text", api.CaseItem{KararMetni: str("bir iki üç dört beş altı yedi sekiz dokuz on")}, "bir iki üç dört beş altı yedi sekiz…"},
		{"short decision text", api.CaseItem{KararMetni: str("kısa metin")}, "kısa metin…"},
		{"reasoning", api.CaseItem{DavaTuru: str("  "), Gerekce: str("gerekçe metni burada")}, "gerekçe metni burada…"},
		{"fallback", api.CaseItem{}, "Emsal Dava"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CaseTitle(tt.item))
		})
	}
}
