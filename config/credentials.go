package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SecurityMethod defines how the backend token is stored on disk
type SecurityMethod string

const (
	SecurityPlainText SecurityMethod = "plaintext"
	SecuritySSHKey    SecurityMethod = "ssh_key"
)

// ParseSecurityMethod maps a settings value to a method, defaulting to plaintext
func ParseSecurityMethod(s string) (SecurityMethod, error) {
	switch SecurityMethod(s) {
	case "", SecurityPlainText:
		return SecurityPlainText, nil
	case SecuritySSHKey:
		return SecuritySSHKey, nil
	default:
		return "", fmt.Errorf("unknown security method: %s", s)
	}
}

// CredentialStore keeps bearer tokens for processing endpoints, keyed by
// backend URL, either in credentials.toml or SSH-key encrypted in credentials.enc.
type CredentialStore struct {
	method     SecurityMethod
	tokens     map[string]string
	sshKeyPath string
	passphrase string
	encManager *EncryptionManager
}

func NewCredentialStore(method SecurityMethod, sshKeyPath string) *CredentialStore {
	return &CredentialStore{
		method:     method,
		tokens:     make(map[string]string),
		sshKeyPath: sshKeyPath,
	}
}

// SetPassphrase sets the passphrase for an encrypted SSH key
func (c *CredentialStore) SetPassphrase(passphrase string) {
	c.passphrase = passphrase
	if c.encManager != nil {
		c.encManager.SetPassphrase(passphrase)
	}
}

func (c *CredentialStore) Method() SecurityMethod {
	return c.method
}

// Load reads the stored tokens. A missing file is an empty store.
func (c *CredentialStore) Load(dataDir string) error {
	var (
		tokens map[string]string
		err    error
	)
	switch c.method {
	case SecurityPlainText:
		tokens, err = loadPlainText(dataDir)
	case SecuritySSHKey:
		tokens, err = c.loadSSHEncrypted(dataDir)
	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
	if err != nil {
		return err
	}
	if tokens == nil {
		tokens = make(map[string]string)
	}
	c.tokens = tokens
	return nil
}

func (c *CredentialStore) Save(dataDir string) error {
	switch c.method {
	case SecurityPlainText:
		return savePlainText(dataDir, c.tokens)
	case SecuritySSHKey:
		return c.saveSSHEncrypted(dataDir)
	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
}

// Token returns the token stored for a backend URL
func (c *CredentialStore) Token(backendURL string) string {
	return c.tokens[backendURL]
}

func (c *CredentialStore) SetToken(backendURL, token string) {
	c.tokens[backendURL] = token
}

func (c *CredentialStore) DeleteToken(backendURL string) {
	delete(c.tokens, backendURL)
}

// URLs lists the backends that have a stored token
func (c *CredentialStore) URLs() []string {
	urls := make([]string, 0, len(c.tokens))
	for u := range c.tokens {
		urls = append(urls, u)
	}
	return urls
}

func credentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.toml")
}

func encryptedCredentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.enc")
}

type credentialsFile struct {
	Tokens map[string]string `toml:"tokens"`
}

func loadPlainText(dataDir string) (map[string]string, error) {
	path := credentialsPath(dataDir)
	if !FileExists(path) {
		return make(map[string]string), nil
	}

	var cf credentialsFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	return cf.Tokens, nil
}

func savePlainText(dataDir string, tokens map[string]string) error {
	f, err := os.OpenFile(credentialsPath(dataDir), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(credentialsFile{Tokens: tokens}); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	return nil
}

func (c *CredentialStore) ensureEncryption() error {
	if c.encManager != nil && c.passphrase == "" {
		return nil
	}
	c.encManager = NewEncryptionManager(EncryptionSSHKey, c.sshKeyPath)
	c.encManager.SetPassphrase(c.passphrase)
	if err := c.encManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize encryption: %w", err)
	}
	return nil
}

func (c *CredentialStore) loadSSHEncrypted(dataDir string) (map[string]string, error) {
	path := encryptedCredentialsPath(dataDir)
	if !FileExists(path) {
		return make(map[string]string), nil
	}

	if err := c.ensureEncryption(); err != nil {
		return nil, err
	}

	encrypted, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted credentials: %w", err)
	}

	plain, err := c.encManager.Decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var tokens map[string]string
	if err := json.Unmarshal(plain, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted credentials: %w", err)
	}

	return tokens, nil
}

func (c *CredentialStore) saveSSHEncrypted(dataDir string) error {
	if err := c.ensureEncryption(); err != nil {
		return err
	}

	data, err := json.Marshal(c.tokens)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}

	encrypted, err := c.encManager.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	if err := os.WriteFile(encryptedCredentialsPath(dataDir), encrypted, 0600); err != nil {
		return fmt.Errorf("failed to write encrypted credentials: %w", err)
	}

	return nil
}
