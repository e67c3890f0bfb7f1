// Package render formats LexAI data for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"LexAI/internal/admin"
	"LexAI/internal/api"
	"LexAI/internal/session"
	"LexAI/internal/similar"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	likeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dislikeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	adminStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// Header renders a section heading.
func Header(s string) string {
	return headerStyle.Render(s)
}

// Role renders the speaker label of a message.
func Role(s session.Sender) string {
	if s == session.SenderUser {
		return userStyle.Render("Siz")
	}
	return assistantStyle.Render("LexAI")
}

// VoteMark renders a vote, or nothing when there is none.
func VoteMark(v *session.Vote) string {
	if v == nil {
		return ""
	}
	if *v == session.VoteLike {
		return likeStyle.Render("👍")
	}
	return dislikeStyle.Render("👎")
}

// Sessions writes the history listing. The active session is marked.
func Sessions(w io.Writer, entries []session.Entry, activeID string) {
	_, _ = fmt.Fprintln(w, Header(fmt.Sprintf("Sohbet Geçmişi (%d)", len(entries))))
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("  Henüz sohbet yok."))
		return
	}
	for i, e := range entries {
		marker := " "
		if e.ID == activeID {
			marker = "•"
		}
		_, _ = fmt.Fprintf(w, "%s %2d. %s %s\n", marker, i+1, titleStyle.Render(e.Title), idStyle.Render(e.ID))
	}
}

// Transcript writes the messages of a conversation, numbering assistant
// answers so they can be voted on.
func Transcript(w io.Writer, msgs []session.Message, md *Markdown) {
	n := 0
	for _, m := range msgs {
		content := m.Content
		label := Role(m.Sender)
		if m.Sender == session.SenderAssistant {
			n++
			label = fmt.Sprintf("%s %s", label, mutedStyle.Render(fmt.Sprintf("#%d", n)))
			if md != nil {
				content = md.Render(content)
			}
		}
		if mark := VoteMark(m.Vote); mark != "" {
			label += " " + mark
		}
		_, _ = fmt.Fprintf(w, "%s\n%s\n\n", label, strings.TrimRight(content, "\n"))
	}
}

// Users writes the admin user table.
func Users(w io.Writer, users []api.User, total int) {
	count := fmt.Sprintf("%d", len(users))
	if len(users) != total {
		count = fmt.Sprintf("%d / %d", len(users), total)
	}
	_, _ = fmt.Fprintln(w, Header(fmt.Sprintf("Kullanıcılar (%s)", count)))
	for _, u := range users {
		role := mutedStyle.Render("user")
		if u.IsAdmin {
			role = adminStyle.Render("admin")
		}
		_, _ = fmt.Fprintf(w, "  %-28s %-32s %s %s\n", u.DisplayName(), u.Email, role, idStyle.Render(u.ID))
	}
}

// Feedback writes the admin feedback table.
func Feedback(w io.Writer, items []api.Feedback) {
	_, _ = fmt.Fprintln(w, Header("Geri Bildirimler"))
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("  Henüz geri bildirim yok."))
		return
	}
	for _, f := range items {
		var vote *session.Vote
		if f.Vote != nil {
			if v, err := session.ParseVote(*f.Vote); err == nil {
				vote = &v
			}
		}
		mark := VoteMark(vote)
		if mark == "" {
			mark = mutedStyle.Render("—")
		}
		_, _ = fmt.Fprintf(w, "  %s %s %s\n    S: %s\n    C: %s\n",
			titleStyle.Render(admin.Author(f)),
			mutedStyle.Render(f.Timestamp.Local().Format("02.01.06 15:04")),
			mark,
			truncate(f.QuestionText, 80),
			truncate(f.AnswerText, 120))
	}
}

// Similar writes similar cases and related laws.
func Similar(w io.Writer, cases []api.CaseItem, laws []api.LawItem) {
	_, _ = fmt.Fprintln(w, Header("Benzer Davalar"))
	if len(cases) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("  Henüz sonuç yok."))
	}
	for _, c := range cases {
		sonuc := "?"
		if c.Sonuc != nil && *c.Sonuc != "" {
			sonuc = *c.Sonuc
		}
		_, _ = fmt.Fprintf(w, "  %s %s\n    Sonuç: %s · Kaynak: %s · Benzerlik: %%%.1f\n",
			titleStyle.Render(similar.CaseTitle(c)), idStyle.Render(c.DocID), sonuc, c.Source, c.SimilarityScore*100)
	}

	_, _ = fmt.Fprintln(w, Header("İlgili Kanunlar"))
	if len(laws) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("  İlgili kanun bulunamadı."))
	}
	for _, l := range laws {
		_, _ = fmt.Fprintf(w, "  %s m.%s %s\n", titleStyle.Render(l.LawName), l.ArticleNo,
			mutedStyle.Render(fmt.Sprintf("(%.2f)", l.RelevanceScore)))
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
