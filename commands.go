package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"docchat/backend"
	"docchat/config"
	"docchat/devbackend"
	"docchat/format"
	"docchat/reveal"
	"docchat/storage"
)

func askCmd() *cobra.Command {
	var (
		files    []string
		noReveal bool
	)

	cmd := &cobra.Command{
		Use:   "ask -f FILE... QUESTION",
		Short: "Ask one question about files without the TUI",
		Long: `Uploads the files with the question to the configured backend and
prints the answer, revealed word by word when stdout is a terminal.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			cfg, client, err := loadClient()
			if err != nil {
				return err
			}

			maxFiles := backend.DefaultMaxFiles
			if cfg.MaxFiles > 0 {
				maxFiles = cfg.MaxFiles
			}
			set := backend.NewFileSet(maxFiles)
			for _, path := range files {
				f, err := backend.LoadFile(config.ExpandPath(path))
				if err != nil {
					return err
				}
				if err := set.Add(f); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("asking", "backend", client.BaseURL(), "files", set.Len(), "size", backend.FormatSize(set.TotalSize()))

			res, err := client.Process(ctx, set.Files(), query)
			if err != nil {
				logger.Error("request failed", "err", err)
				return errors.New(backend.DisplayMessage(err))
			}

			out := cmd.OutOrStdout()
			width := terminalWidth(os.Stdout)
			if noReveal || !cfg.RevealEnabled || !term.IsTerminal(int(os.Stdout.Fd())) {
				fmt.Fprintln(out, renderStatic(res.Text, width))
				return nil
			}

			opts := reveal.Options{Duration: cfg.RevealDuration(), Stagger: cfg.RevealStagger()}
			return animateAnswer(ctx, out, res.Text, opts, width)
		},
	}

	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "file to ask about (repeatable)")
	cmd.Flags().BoolVar(&noReveal, "no-reveal", false, "print the answer without the reveal animation")
	return cmd
}

// animateAnswer redraws the reveal in place until it completes, then
// replaces it with the static rendering
func animateAnswer(ctx context.Context, w io.Writer, text string, opts reveal.Options, width int) error {
	anim := reveal.NewAnimator(format.Preformat(text), opts, reveal.SystemClock)

	done := make(chan struct{})
	anim.Start(func() { close(done) })
	defer anim.Stop()

	ticker := time.NewTicker(reveal.DefaultFrameRate)
	defer ticker.Stop()

	drawn := 0
	draw := func(frame string) {
		if drawn > 0 {
			fmt.Fprintf(w, "\x1b[%dA", drawn)
		}
		fmt.Fprint(w, "\r\x1b[J", frame, "\n")
		drawn = strings.Count(frame, "\n") + 1
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			draw(renderStatic(text, width))
			return nil
		case <-ticker.C:
			draw(anim.Render(width))
		}
	}
}

func renderStatic(text string, width int) string {
	return format.NewRenderer(width, format.RenderTeX).RenderResolved(format.Parse(text)).String()
}

func terminalWidth(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func stubBackendCmd() *cobra.Command {
	var addr, token string

	cmd := &cobra.Command{
		Use:   "stub-backend",
		Short: "Run a local processing backend that echoes what it received",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := devbackend.New(addr, token, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down stub backend")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down: %w", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().StringVar(&token, "token", "", "require this bearer token on /process")
	return cmd
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the configuration and the backend connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("docchat doctor %s\n\n", Version)
			failed := 0

			cfg, err := config.Load()
			if err != nil {
				printFail("Config", err.Error())
				return errors.New("configuration could not be loaded")
			}
			printPass("Config", cfg.DataDir())

			store, err := unlockCredentialsCLI(cfg)
			switch {
			case err != nil:
				printFail("Credentials", err.Error())
				failed++
			default:
				cfg.ResolveToken(store)
				if cfg.APIToken == "" {
					printWarn("Token", "none set for "+cfg.APIURL)
				} else {
					printPass("Token", "set for "+cfg.APIURL)
				}
			}

			documents, err := storage.NewDocumentStorage(cfg.DataDir())
			if err != nil {
				printFail("Documents index", err.Error())
				failed++
			} else {
				recent, err := documents.Recent(1000)
				documents.Close()
				if err != nil {
					printFail("Documents index", err.Error())
					failed++
				} else {
					printPass("Documents index", fmt.Sprintf("%d documents", len(recent)))
				}
			}

			client, err := backend.NewClient(cfg.APIURL, cfg.APIToken, cfg.Timeout())
			if err != nil {
				printFail("Backend URL", err.Error())
				failed++
			} else {
				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
				err := client.Ping(ctx)
				cancel()
				if err != nil {
					logger.Debug("ping failed", "err", err)
					printFail("Backend", fmt.Sprintf("%s: %v", client.BaseURL(), err))
					failed++
				} else {
					printPass("Backend", client.BaseURL())
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			fmt.Println("\nAll checks passed.")
			return nil
		},
	}
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-16s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-16s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-16s %s\n", check, detail)
}

func tokenCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the backend bearer token",
	}
	cmd.PersistentFlags().StringVar(&url, "url", "", "backend URL the token belongs to (default: configured backend)")

	setCmd := &cobra.Command{
		Use:   "set [TOKEN]",
		Short: "Store a token, read from the terminal when not given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore()
			if err != nil {
				return err
			}

			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				token, err = readSecret("Token: ")
				if err != nil {
					return err
				}
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("empty token")
			}

			target := tokenURL(cfg, url)
			store.SetToken(target, token)
			if err := store.Save(cfg.DataDir()); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}
			logger.Info("token stored", "backend", target, "method", store.Method())
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore()
			if err != nil {
				return err
			}

			target := tokenURL(cfg, url)
			store.DeleteToken(target)
			if err := store.Save(cfg.DataDir()); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}
			logger.Info("token removed", "backend", target)
			return nil
		},
	}

	cmd.AddCommand(setCmd, clearCmd)
	return cmd
}

func tokenURL(cfg *config.Config, override string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	return cfg.APIURL
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docchat %s\n", Version)
		},
	}
}

func openStore() (*config.Config, *config.CredentialStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	config.InitDebugLog(cfg.DataDir())

	store, err := unlockCredentialsCLI(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func loadClient() (*config.Config, *backend.Client, error) {
	cfg, store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	cfg.ResolveToken(store)

	client, err := backend.NewClient(cfg.APIURL, cfg.APIToken, cfg.Timeout())
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

// unlockCredentialsCLI opens the token store, prompting on the terminal for
// the SSH key passphrase when the key is encrypted
func unlockCredentialsCLI(cfg *config.Config) (*config.CredentialStore, error) {
	if cfg.SecurityMethod != config.SecuritySSHKey {
		return cfg.Credentials("")
	}

	encrypted, err := config.IsSSHKeyEncrypted(cfg.SSHKeyPath)
	if err != nil {
		return nil, err
	}
	if !encrypted {
		return cfg.Credentials("")
	}

	passphrase, err := readSecret(fmt.Sprintf("Passphrase for %s: ", cfg.SSHKeyPath))
	if err != nil {
		return nil, err
	}
	if _, err := config.LoadSSHPrivateKeyWithPassphrase(cfg.SSHKeyPath, passphrase); err != nil {
		return nil, err
	}
	return cfg.Credentials(passphrase)
}

func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(secret), nil
}
