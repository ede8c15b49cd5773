package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docchat/backend"
	"docchat/config"
	appmodel "docchat/model"
	"docchat/storage"
	"docchat/ui"
)

const Version = "v0.1.0"

var logger *slog.Logger

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// DOCCHAT_* variables may come from a .env file in the working directory
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("could not read .env", "err", err)
	}

	root := &cobra.Command{
		Use:          "docchat",
		Short:        "Ask questions about your documents",
		Long:         "docchat attaches documents, sends your questions to a processing backend and reveals the answers in the terminal.",
		SilenceUsage: true,
		RunE:         runTUI,
	}

	root.AddCommand(askCmd())
	root.AddCommand(stubBackendCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		showErrorModal("Configuration Error", fmt.Sprintf("Failed to load config:\n\n%v", err))
		return err
	}

	config.InitDebugLog(cfg.DataDir())

	store, err := unlockCredentialsTUI(cfg)
	if err != nil {
		showErrorModal("Credentials Error", err.Error())
		return err
	}
	if store == nil {
		// passphrase prompt cancelled
		return nil
	}
	cfg.ResolveToken(store)

	client, err := backend.NewClient(cfg.APIURL, cfg.APIToken, cfg.Timeout())
	if err != nil {
		showErrorModal("Backend Error", fmt.Sprintf("Invalid backend URL %q:\n\n%v", cfg.APIURL, err))
		return err
	}

	conversations, err := storage.NewConversationStorage(cfg.DataDir())
	if err != nil {
		return fmt.Errorf("failed to initialize conversation storage: %w", err)
	}

	documents, err := storage.NewDocumentStorage(cfg.DataDir())
	if err != nil {
		return fmt.Errorf("failed to open documents index: %w", err)
	}
	defer documents.Close()

	kb, err := config.LoadKeybindings(cfg.DataDir())
	if err != nil {
		showErrorModal("Keybindings Error", err.Error())
		return err
	}

	var last *storage.Conversation
	if id, err := conversations.LoadCurrentID(); err == nil && id != "" {
		last, err = conversations.Load(id)
		if err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[main] could not restore conversation %s: %v", id, err)
		}
	}

	dataModel := appmodel.NewModel(cfg, client, conversations, documents, last, Version)

	p := tea.NewProgram(
		ui.NewAppView(dataModel, kb),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running docchat: %w", err)
	}
	return nil
}

// unlockCredentialsTUI opens the token store, asking for the SSH key
// passphrase in a modal when the key is encrypted. It returns a nil store
// when the user cancels.
func unlockCredentialsTUI(cfg *config.Config) (*config.CredentialStore, error) {
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

	modal := ui.NewPassphraseModal(cfg.SSHKeyPath, func(passphrase string) error {
		_, err := config.LoadSSHPrivateKeyWithPassphrase(cfg.SSHKeyPath, passphrase)
		return err
	})

	final, err := tea.NewProgram(modal, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run passphrase prompt: %w", err)
	}

	pm, ok := final.(ui.PassphraseModal)
	if !ok || pm.Cancelled() || pm.Passphrase() == "" {
		return nil, nil
	}
	return cfg.Credentials(pm.Passphrase())
}

func showErrorModal(title, message string) {
	p := tea.NewProgram(ui.NewErrorModal(title, message), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
