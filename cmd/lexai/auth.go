package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"LexAI/internal/api"
	"LexAI/internal/render"
	"LexAI/internal/route"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if email == "" {
				if email, err = prompt(cmd, in, "E-posta: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = readPassword(cmd, in); err != nil {
					return err
				}
			}

			if !c.app.Auth.Login(cmd.Context(), email, password) {
				return fmt.Errorf("login failed: invalid credentials or service unavailable")
			}
			c.app.History.Replace(route.Location{Path: route.PathHome})
			user := c.app.Auth.Get().User
			c.printf(cmd, "%s %s\n", render.SuccessStyle.Render("Giriş başarılı:"), user.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.Auth.Logout()
			c.app.History.Replace(route.Location{Path: route.PathLogin})
			c.printf(cmd, "Çıkış yapıldı.\n")
			return nil
		},
	}
}

func (c *cli) registerCmd() *cobra.Command {
	var req api.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			for _, f := range []struct {
				label string
				dst   *string
			}{
				{"Ad: ", &req.FirstName},
				{"Soyad: ", &req.LastName},
				{"E-posta: ", &req.Email},
			} {
				if *f.dst != "" {
					continue
				}
				if *f.dst, err = prompt(cmd, in, f.label); err != nil {
					return err
				}
			}
			if req.Password == "" {
				if req.Password, err = readPassword(cmd, in); err != nil {
					return err
				}
			}

			if err := c.app.Auth.Register(cmd.Context(), req); err != nil {
				return err
			}
			c.printf(cmd, "Kayıt başarılı. `lexai login` ile giriş yapabilirsiniz.\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "whoami",
		Short:       "Show the signed-in user",
		Annotations: guarded(route.PathHome),
		RunE: func(cmd *cobra.Command, args []string) error {
			state := c.app.Auth.Get()
			c.app.Auth.FetchUser(cmd.Context(), state.Token)
			user := c.app.Auth.Get().User
			if user == nil {
				return errNotLoggedIn
			}
			role := "user"
			if user.IsAdmin {
				role = "admin"
			}
			c.printf(cmd, "%s <%s> (%s)\n", user.DisplayName(), user.Email, role)
			return nil
		},
	}
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Şifre: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return prompt(cmd, in, "Şifre: ")
}
