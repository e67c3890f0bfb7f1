package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LexAI/internal/app"
	"LexAI/internal/config"
	"LexAI/internal/session"
	"LexAI/internal/storage"
	"LexAI/testutil"
)

type harness struct {
	srv *testutil.Server
	kv  *storage.MemoryStore
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("LEXAI_CHAT_MODE", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
data_dir = "`+filepath.ToSlash(dir)+`"

[chat]
mode = "server"
reveal_interval = "0s"
`), 0644))
	return &harness{srv: testutil.NewServer(t), kv: storage.NewMemoryStore(), dir: dir}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	open := func(ctx context.Context, cfg *config.Config) (*app.App, error) {
		return app.New(cfg, h.kv, nil), nil
	}
	c := newCLI(open)
	root := c.rootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", filepath.Join(h.dir, "config.toml"), "--base-url", h.srv.URL}, args...))

	err := c.execute(context.Background(), root)
	return out.String(), err
}

func TestGuardBlocksAnonymous(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"whoami"},
		{"chat"},
		{"history", "list"},
		{"similar", "işe", "iade"},
		{"admin", "users"},
	} {
		_, err := h.run("", args...)
		assert.ErrorIs(t, err, errNotLoggedIn, "%v", args)
	}
	assert.Equal(t, 0, h.srv.Count("POST /ask"))
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("ayse@example.com", "secret", false)

	_, err := h.run("", "login", "--email", "ayse@example.com", "--password", "wrong")
	require.Error(t, err)

	out, err := h.run("ayse@example.com\nsecret\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Giriş başarılı")

	out, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "<ayse@example.com> (user)")

	_, err = h.run("", "admin", "feedback")
	assert.ErrorIs(t, err, errAdminRequired)

	_, err = h.run("", "logout")
	require.NoError(t, err)
	_, err = h.run("", "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "register", "--first-name", "Can", "--last-name", "Yılmaz", "--email", "can@example.com", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Kayıt başarılı")

	_, err = h.run("", "login", "--email", "can@example.com", "--password", "pw")
	require.NoError(t, err)
}

func TestChatAndHistory(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("ayse@example.com", "secret", false)
	_, err := h.run("", "login", "--email", "ayse@example.com", "--password", "secret")
	require.NoError(t, err)

	out, err := h.run("kıdem tazminatı nedir?\n/quit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Yanıt: Kıdem tazminatı nedir?")

	out, err = h.run("", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Kıdem tazminatı nedir?")

	var entries []session.Entry
	raw, ok, err := h.kv.Get(storage.KeyServerSessions)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))
	require.Len(t, entries, 1)
	id := entries[0].ID

	_, err = h.run("", "history", "rename", id, "Kıdem")
	require.NoError(t, err)

	out, err = h.run("", "history", "export", id, "--format", "json")
	require.NoError(t, err)
	var exported session.Session
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	assert.Equal(t, "Kıdem", exported.Title)
	assert.Len(t, exported.Messages, 2)

	out, err = h.run("", "history", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "LexAI")

	_, err = h.run("", "history", "delete", id)
	require.NoError(t, err)
	out, err = h.run("", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Henüz sohbet yok.")
}

func TestAdminCommands(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("admin@example.com", "pw", true)
	u := h.srv.AddUser("mehmet@example.com", "pw", false)
	_, err := h.run("", "login", "--email", "admin@example.com", "--password", "pw")
	require.NoError(t, err)

	out, err := h.run("", "admin", "users", "--filter", "mehmet")
	require.NoError(t, err)
	assert.Contains(t, out, "mehmet@example.com")
	assert.NotContains(t, out, "admin@example.com")

	_, err = h.run("", "admin", "users", "--make-admin", u.ID)
	require.NoError(t, err)
	got, _ := h.srv.User(u.ID)
	assert.True(t, got.IsAdmin)

	_, err = h.run("", "admin", "users", "--make-admin", u.ID, "--delete", u.ID)
	assert.Error(t, err)

	out, err = h.run("", "admin", "feedback")
	require.NoError(t, err)
	assert.Contains(t, out, "Henüz geri bildirim yok.")

	like := "like"
	id := h.srv.AddFeedback(u, "Fazla mesai ücreti", "Yüzde elli zamlı ödenir.", &like)
	out, err = h.run("", "admin", "feedback", "--id", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Fazla mesai ücreti")
}

func TestThemeAndSimilar(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("ayse@example.com", "secret", false)

	out, err := h.run("", "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "Tema: dark")

	out, err = h.run("", "theme", "light")
	require.NoError(t, err)
	assert.Contains(t, out, "Tema: light")

	out, err = h.run("", "theme", "--toggle")
	require.NoError(t, err)
	assert.Contains(t, out, "Tema: dark")

	_, err = h.run("", "login", "--email", "ayse@example.com", "--password", "secret")
	require.NoError(t, err)
	out, err = h.run("", "similar", "işe", "iade")
	require.NoError(t, err)
	assert.Contains(t, out, "İş Kanunu")
	assert.Contains(t, out, "İşe İade")
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "config", "init")
	assert.ErrorContains(t, err, "already exists")

	path := filepath.Join(t.TempDir(), "lexai", "config.toml")
	out, err := h.run("", "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Yapılandırma yazıldı")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, h.srv.URL, cfg.BaseURL)
	assert.Equal(t, config.ChatModeServer, cfg.Chat.Mode)

	_, err = h.run("", "config", "init", "--config", path, "--force")
	require.NoError(t, err)

	out, err = h.run("", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `mode = "server"`)
	assert.Contains(t, out, `reveal_interval = "0s"`)
}
