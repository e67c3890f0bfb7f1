package chatbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"LexAI/internal/app"
	"LexAI/internal/chat"
	"LexAI/internal/render"
	"LexAI/internal/route"
	"LexAI/internal/session"
)

// ChatBot is the interactive chat loop
type ChatBot struct {
	app    *app.App
	conv   *chat.Conversation
	logger *slog.Logger
	in     LineReader
	out    io.Writer
	md     *render.Markdown

	mu      sync.Mutex
	printed int // bytes of the pending answer already written
}

// NewChatBot creates a chat loop reading from in and writing to out
func NewChatBot(a *app.App, in io.Reader, out io.Writer) *ChatBot {
	cb := &ChatBot{
		app:    a,
		logger: a.Logger.With("component", "chatbot"),
		in:     newScannerInput(in, out),
		out:    out,
		md:     render.NewMarkdown(a.Prefs.Theme()),
	}
	cb.conv = a.Conversation(cb.onReveal)
	cb.conv.OnSessionsChanged(cb.onSessionsChanged)
	return cb
}

// SetInput replaces the plain line reader, typically with a LineEditor
// when stdin is a terminal.
func (cb *ChatBot) SetInput(r LineReader) {
	cb.in = r
}

// Conversation exposes the underlying chat view
func (cb *ChatBot) Conversation() *chat.Conversation {
	return cb.conv
}

// onReveal writes the newly revealed part of the answer
func (cb *ChatBot) onReveal(partial string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.printed == 0 {
		fmt.Fprintf(cb.out, "%s\n", render.Role(session.SenderAssistant))
	}
	if len(partial) > cb.printed {
		fmt.Fprint(cb.out, partial[cb.printed:])
		cb.printed = len(partial)
	}
}

// onSessionsChanged redraws the session list unless the sidebar is collapsed
func (cb *ChatBot) onSessionsChanged() {
	if cb.app.Prefs.SidebarCollapsed() {
		return
	}
	cb.printSessions(context.Background())
}

func (cb *ChatBot) printSessions(ctx context.Context) {
	render.Sessions(cb.out, cb.conv.Sessions(ctx), cb.conv.SessionID())
	fmt.Fprintln(cb.out)
}

// sendMessage sends one question and waits for the revealed answer
func (cb *ChatBot) sendMessage(ctx context.Context, input string) error {
	cb.mu.Lock()
	cb.printed = 0
	cb.mu.Unlock()

	err := cb.conv.Send(ctx, input)

	cb.mu.Lock()
	if cb.printed > 0 {
		fmt.Fprint(cb.out, "\n\n")
	}
	cb.mu.Unlock()
	return err
}

// handleCommand runs a slash command. It reports whether the loop should end.
func (cb *ChatBot) handleCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}
	arg := strings.TrimSpace(strings.TrimPrefix(cmd, parts[0]))

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/new":
		cb.app.History.Push(route.Location{Path: route.PathChat})
		cb.conv.Reset()
		fmt.Fprintln(cb.out, "Yeni sohbet başlatıldı.")
		return false, nil

	case "/history":
		cb.printSessions(ctx)
		return false, nil

	case "/open":
		if arg == "" {
			return false, fmt.Errorf("usage: /open <id|number>")
		}
		id := cb.resolveSession(ctx, arg)
		cb.app.History.Push(route.ChatLocation(id))
		return false, cb.open(ctx, id)

	case "/back":
		loc, ok := cb.app.History.Back()
		if !ok {
			return false, fmt.Errorf("no previous conversation")
		}
		if id := loc.Param("id"); loc.Path == route.PathChat && id != "" {
			return false, cb.open(ctx, id)
		}
		cb.conv.Reset()
		fmt.Fprintln(cb.out, "Yeni sohbet başlatıldı.")
		return false, nil

	case "/delete":
		id := cb.conv.SessionID()
		if arg != "" {
			id = cb.resolveSession(ctx, arg)
		}
		if id == "" {
			return false, fmt.Errorf("no session selected")
		}
		if err := cb.conv.DeleteSession(ctx, id); err != nil {
			return false, err
		}
		fmt.Fprintf(cb.out, "Sohbet silindi: %s\n", id)
		return false, nil

	case "/rename":
		id := cb.conv.SessionID()
		if id == "" {
			return false, fmt.Errorf("no session selected")
		}
		if arg == "" {
			return false, fmt.Errorf("usage: /rename <title>")
		}
		if err := cb.conv.Rename(ctx, id, arg); err != nil {
			return false, err
		}
		fmt.Fprintf(cb.out, "Başlık güncellendi: %s\n", arg)
		return false, nil

	case "/like", "/dislike":
		vote := session.VoteLike
		if parts[0] == "/dislike" {
			vote = session.VoteDislike
		}
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: %s <answer number>", parts[0])
		}
		msgID, err := cb.answerID(parts[1])
		if err != nil {
			return false, err
		}
		if err := cb.conv.Vote(ctx, msgID, vote); err != nil {
			return false, err
		}
		fmt.Fprintf(cb.out, "Geri bildirim kaydedildi %s\n", render.VoteMark(&vote))
		return false, nil

	case "/similar":
		if arg == "" {
			return false, fmt.Errorf("usage: /similar <query>")
		}
		view := cb.app.Similar()
		if err := view.Search(ctx, arg); err != nil {
			return false, err
		}
		render.Similar(cb.out, view.Cases(), view.Laws())
		return false, nil

	case "/theme":
		var theme string
		var err error
		if arg != "" {
			theme, err = arg, cb.app.Prefs.SetTheme(arg)
		} else {
			theme, err = cb.app.Prefs.ToggleTheme()
		}
		if err != nil {
			return false, err
		}
		cb.md = render.NewMarkdown(theme)
		fmt.Fprintf(cb.out, "Tema: %s\n", theme)
		return false, nil

	case "/sidebar":
		collapsed, err := cb.app.Prefs.ToggleSidebar()
		if err != nil {
			return false, err
		}
		if collapsed {
			fmt.Fprintln(cb.out, "Sohbet listesi gizlendi.")
		} else {
			fmt.Fprintln(cb.out, "Sohbet listesi gösteriliyor.")
		}
		return false, nil

	case "/help":
		fmt.Fprintln(cb.out, "\nCommands:")
		fmt.Fprintln(cb.out, "  /new               - Start a new conversation")
		fmt.Fprintln(cb.out, "  /open <id|n>       - Open a conversation from the history")
		fmt.Fprintln(cb.out, "  /back              - Return to the previous conversation")
		fmt.Fprintln(cb.out, "  /history           - List conversations")
		fmt.Fprintln(cb.out, "  /delete [id|n]     - Delete a conversation (default: current)")
		fmt.Fprintln(cb.out, "  /rename <title>    - Rename the current conversation")
		fmt.Fprintln(cb.out, "  /like <n>          - Like answer number n")
		fmt.Fprintln(cb.out, "  /dislike <n>       - Dislike answer number n")
		fmt.Fprintln(cb.out, "  /similar <query>   - Search similar court decisions")
		fmt.Fprintln(cb.out, "  /theme [dark|light] - Set or toggle the colour theme")
		fmt.Fprintln(cb.out, "  /sidebar           - Show or hide the conversation list")
		fmt.Fprintln(cb.out, "  /quit, /exit       - Exit")
		fmt.Fprintln(cb.out)
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s (type /help for commands)", parts[0])
	}
}

func (cb *ChatBot) open(ctx context.Context, id string) error {
	if err := cb.conv.Load(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cb.out, "Sohbet açıldı: %s\n\n", id)
	render.Transcript(cb.out, cb.conv.Messages(), cb.md)
	return nil
}

// resolveSession maps a history number to its id; anything else is an id.
func (cb *ChatBot) resolveSession(ctx context.Context, arg string) string {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return arg
	}
	entries := cb.conv.Sessions(ctx)
	if n > len(entries) {
		return arg
	}
	return entries[n-1].ID
}

// answerID returns the message id of the n-th assistant answer (1-based).
func (cb *ChatBot) answerID(arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return "", fmt.Errorf("invalid answer number %q", arg)
	}
	i := 0
	for _, m := range cb.conv.Messages() {
		if m.Sender != session.SenderAssistant {
			continue
		}
		i++
		if i == n {
			return m.ID, nil
		}
	}
	return "", fmt.Errorf("no answer #%d in this conversation", n)
}

// Run starts the loop. A non-empty sessionID is opened first; otherwise the
// session of the last location is resumed.
func (cb *ChatBot) Run(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		if loc := cb.app.History.Current(); loc.Path == route.PathChat {
			sessionID = loc.Param("id")
		}
	}

	fmt.Fprintln(cb.out, render.Header("=== LexAI ==="))
	if user := cb.app.Auth.Get().User; user != nil {
		fmt.Fprintf(cb.out, "Kullanıcı: %s\n", user.DisplayName())
	}
	if sessionID != "" {
		if err := cb.conv.Load(ctx, sessionID); err != nil {
			cb.logger.Warn("failed to resume session, starting new one", "session_id", sessionID, "error", err)
			cb.conv.Reset()
		} else {
			fmt.Fprintf(cb.out, "Sohbet: %s\n\n", sessionID)
			render.Transcript(cb.out, cb.conv.Messages(), cb.md)
		}
	}
	if !cb.app.Prefs.SidebarCollapsed() {
		cb.printSessions(ctx)
	}
	fmt.Fprintln(cb.out, "Merhaba! Size nasıl yardımcı olabilirim? (/help, /quit)")
	fmt.Fprintln(cb.out)

	for {
		line, err := cb.in.ReadLine("You: ")
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := cb.handleCommand(ctx, input)
			if err != nil {
				fmt.Fprintln(cb.out, render.ErrorStyle.Render("Error: "+err.Error()))
				cb.logger.Error("command error", "command", input, "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		if err := cb.sendMessage(ctx, input); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			fmt.Fprintln(cb.out, render.ErrorStyle.Render("Error: "+err.Error()))
			continue
		}
	}
	fmt.Fprintln(cb.out, "Görüşmek üzere!")
	return nil
}
