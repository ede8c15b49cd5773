package config

const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultTimeoutSeconds = 120
	DefaultMaxFiles       = 5
)

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/docchat",
		Security: SecurityConfig{
			Method: string(SecurityPlainText),
		},
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Backend: BackendConfig{
			URL:            DefaultAPIURL,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Reveal: RevealConfig{
			Enabled:    true,
			DurationMs: 500,
			StaggerMs:  200,
		},
		Files: FilesConfig{
			MaxFiles: DefaultMaxFiles,
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# docchat System Configuration
# Location: ~/.config/docchat/settings.toml
# This file uses TOML format: https://toml.io

# Directory where conversations, the documents index and user config are stored
data_directory = "~/.local/share/docchat"

[security]
# How the backend token is stored: "plaintext" (credentials.toml, mode 0600)
# or "ssh_key" (credentials.enc, encrypted with a key derived from an SSH key)
method = "plaintext"

# Private key used by the ssh_key method (ed25519 or rsa)
# ssh_key_path = "~/.ssh/id_ed25519"
`
}

func GenerateUserConfigTemplate() string {
	return `# docchat User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[backend]
# Document-processing service. Files and the question are POSTed to <url>/process
# DOCCHAT_API_URL overrides this value
url = "http://localhost:8000"

# Give up on a request after this many seconds
timeout_seconds = 120

# The bearer token is not stored here. Use "docchat token set" or DOCCHAT_API_TOKEN

[reveal]
# Reveal answers word by word before showing them fully formatted
enabled = true

# How long a single word takes to fade in
duration_ms = 500

# Delay between the start of consecutive words
stagger_ms = 200

[files]
# Maximum number of files attached to one question
max_files = 5
`
}
