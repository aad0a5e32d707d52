package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const credFileName = "creds.toml"

// Environment variables that override creds.toml
const (
	EnvGitHubToken     = "GIST_PAT"
	EnvGitHubTokenAlt  = "GITHUB_PAT"
	EnvBotToken        = "BOT_TOKEN"
	EnvTelegramAppID   = "TELEGRAM_APP_ID"
	EnvTelegramAppHash = "TELEGRAM_APP_HASH"
	EnvGistIDs         = "GIST_SHORT_IDS_STR"
)

// Credentials holds all application credentials
type Credentials struct {
	GitHub   GitHubCredentials   `toml:"github"`
	Telegram TelegramCredentials `toml:"telegram"`
}

// GitHubCredentials holds the token used for both GraphQL and gist updates
type GitHubCredentials struct {
	Token   string   `toml:"token"`
	GistIDs []string `toml:"gist_ids"` // Pre-created gists, filled in issue order
}

// IsValid checks if a GitHub token is present
func (gc GitHubCredentials) IsValid() bool {
	return gc.Token != ""
}

// TelegramCredentials holds the bot token and the MTProto application keys
// the bot logs in with
type TelegramCredentials struct {
	BotToken string `toml:"bot_token"`
	AppID    int    `toml:"api_id"`
	AppHash  string `toml:"api_hash"`
}

// IsValid checks if telegram credentials are fully populated
func (tc TelegramCredentials) IsValid() bool {
	return tc.BotToken != "" && tc.AppID != 0 && tc.AppHash != ""
}

// MissingAppKeys names the variables still needed to log the bot in. It is
// empty when no bot token is set.
func (tc TelegramCredentials) MissingAppKeys() []string {
	if tc.BotToken == "" {
		return nil
	}
	var missing []string
	if tc.AppID == 0 {
		missing = append(missing, EnvTelegramAppID)
	}
	if tc.AppHash == "" {
		missing = append(missing, EnvTelegramAppHash)
	}
	return missing
}

// ReadCredentials reads credentials from the specified path
func ReadCredentials(path string) (Credentials, error) {
	var creds Credentials

	data, err := os.ReadFile(path)
	if err != nil {
		return creds, err
	}

	if _, err := toml.Decode(string(data), &creds); err != nil {
		return creds, fmt.Errorf("failed to decode credentials at %s: %w", path, err)
	}

	return creds, nil
}

// LoadCredentials reads the optional credentials file and applies the
// environment on top of it. A missing file is not an error.
func LoadCredentials(path string, getenv func(string) string) (Credentials, error) {
	creds, err := ReadCredentials(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return creds, err
	}

	if v := firstNonEmpty(getenv(EnvGitHubToken), getenv(EnvGitHubTokenAlt)); v != "" {
		creds.GitHub.Token = v
	}
	if v := getenv(EnvGistIDs); v != "" {
		creds.GitHub.GistIDs = strings.Split(v, ",")
	}
	if v := getenv(EnvBotToken); v != "" {
		creds.Telegram.BotToken = v
	}
	if v := getenv(EnvTelegramAppHash); v != "" {
		creds.Telegram.AppHash = v
	}
	if v := getenv(EnvTelegramAppID); v != "" {
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return creds, fmt.Errorf("invalid %s '%s': %w", EnvTelegramAppID, v, err)
		}
		creds.Telegram.AppID = id
	}

	return creds, nil
}

// CredentialsPath returns the creds.toml path that sits next to the config
// at cfgPath.
func CredentialsPath(cfgPath string) string {
	return filepath.Join(filepath.Dir(cfgPath), credFileName)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
