package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"LexAI/internal/chatbot"
	"LexAI/internal/render"
	"LexAI/internal/route"
	"LexAI/internal/session"
)

func (c *cli) chatCmd() *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:         "chat",
		Short:       "Start an interactive chat",
		Long:        `Start an interactive chat. Without --session the conversation of the last run is resumed.`,
		Annotations: guarded(route.PathChat),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot := chatbot.NewChatBot(c.app, cmd.InOrStdin(), cmd.OutOrStdout())
			if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				editor := chatbot.NewLineEditor(c.app.Config.InputHistoryPath())
				defer func() {
					if err := editor.Close(); err != nil {
						c.app.Logger.Warn("failed to save input history", "error", err)
					}
				}()
				bot.SetInput(editor)
			}
			return bot.Run(cmd.Context(), sessionID)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Open this conversation id")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "history",
		Short:       "Manage conversation history",
		Annotations: guarded(route.PathChat),
	}

	list := &cobra.Command{
		Use:         "list",
		Short:       "List conversations, newest first",
		Annotations: guarded(route.PathChat),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := c.app.Conversation(nil)
			render.Sessions(cmd.OutOrStdout(), conv.Sessions(cmd.Context()), c.app.History.Current().Param("id"))
			return nil
		},
	}

	show := &cobra.Command{
		Use:         "show <id>",
		Short:       "Show a conversation",
		Annotations: guarded(route.PathChat),
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := c.app.Conversation(nil)
			if err := conv.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			render.Transcript(cmd.OutOrStdout(), conv.Messages(), render.NewMarkdown(c.app.Prefs.Theme()))
			return nil
		},
	}

	del := &cobra.Command{
		Use:         "delete <id>",
		Short:       "Delete a conversation",
		Annotations: guarded(route.PathChat),
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := c.app.Conversation(nil)
			if err := conv.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			if c.app.History.Current().Param("id") == args[0] {
				c.app.History.Replace(route.Location{Path: route.PathChat})
			}
			c.printf(cmd, "Sohbet silindi: %s\n", args[0])
			return nil
		},
	}

	rename := &cobra.Command{
		Use:         "rename <id> <title>",
		Short:       "Rename a conversation",
		Annotations: guarded(route.PathChat),
		Args:        cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := c.app.Conversation(nil)
			if err := conv.Rename(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			c.printf(cmd, "Başlık güncellendi: %s\n", args[1])
			return nil
		},
	}

	var format, output string
	export := &cobra.Command{
		Use:         "export <id>",
		Short:       "Export a conversation (json, yaml, md)",
		Annotations: guarded(route.PathChat),
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := render.NewExporter(format)
			if err != nil {
				return err
			}

			conv := c.app.Conversation(nil)
			if err := conv.Load(cmd.Context(), args[0]); err != nil {
				return err
			}
			sess := &session.Session{ID: args[0], Messages: conv.Messages()}
			if cached, err := c.app.Cache.Get(args[0]); err == nil {
				sess.Title = cached.Title
			}

			if output == "" {
				return exporter.Export(sess, cmd.OutOrStdout())
			}

			path := output
			if info, err := os.Stat(output); err == nil && info.IsDir() {
				path = filepath.Join(output, fmt.Sprintf("%s.%s", args[0], exporter.Extension()))
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			defer f.Close()

			if err := exporter.Export(sess, f); err != nil {
				return fmt.Errorf("failed to export session: %w", err)
			}
			c.printf(cmd, "Dışa aktarıldı: %s\n", path)
			return nil
		},
	}
	export.Flags().StringVarP(&format, "format", "f", "md", "Export format (json, yaml, md)")
	export.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (default stdout)")

	cmd.AddCommand(list, show, del, rename, export)
	return cmd
}
