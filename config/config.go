package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/scipunch/issuesync/format"
)

// Built-in profiles. "gist" republishes to the chat and to gists, "chat"
// only to its own chat.
const (
	ProfileGist = "gist"
	ProfileChat = "chat"
)

const baseCfgPath = "issuesync/config.toml"

type Config struct {
	Source          SourceConfig             `toml:"source"`
	Format          FormatConfig             `toml:"format"`
	Telegram        TelegramConfig           `toml:"telegram"`
	Profile         string                   `toml:"profile"`  // Name of the active entry in Profiles
	Profiles        map[string]ProfileConfig `toml:"profiles"` // Destination sets; keys a table omits fall back to the built-in of the same name
	ExitOnFailure   bool                     `toml:"exit_on_failure"`
	ParallelPublish bool                     `toml:"parallel_publish"` // Publish to chat and gists concurrently
}

type SourceConfig struct {
	Owner string `toml:"owner"`
	Repo  string `toml:"repo"`
	Count int    `toml:"count"` // Issues fetched per run, also the gist page size
}

type FormatConfig struct {
	Locale   string `toml:"locale"`   // BCP 47 tag for the title date
	Timezone string `toml:"timezone"` // IANA zone the title date is rendered in
}

type TelegramConfig struct {
	SessionPath    string `toml:"session_path"`     // Empty keeps the bot session in memory
	CheckImageType bool   `toml:"check_image_type"` // HEAD extension-less image links
}

// ProfileConfig is one deployment target
type ProfileConfig struct {
	ChatID       int64  `toml:"chat_id"`
	FooterURL    string `toml:"footer_url"`
	PublishGists bool   `toml:"publish_gists"`
}

// Settings is the validated, resolved configuration of a single run
type Settings struct {
	Owner           string
	Repo            string
	Count           int
	Profile         string
	ChatID          int64
	FooterURL       string
	PublishGists    bool
	Locale          string
	Location        *time.Location
	SessionPath     string
	CheckImageType  bool
	ExitOnFailure   bool
	ParallelPublish bool
	Credentials     Credentials
}

func Read(path string) (Config, error) {
	conf := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	md, err := toml.Decode(string(dat), &conf)
	if err != nil {
		return conf, fmt.Errorf("failed to decode config at %s with %w", path, err)
	}
	conf.fillProfiles(Default().Profiles, md)
	return conf, nil
}

// fillProfiles restores the keys a [profiles.<name>] table leaves out from
// the built-in profile of the same name. The decoder replaces the whole map
// entry otherwise.
func (c *Config) fillProfiles(builtin map[string]ProfileConfig, md toml.MetaData) {
	for name, p := range c.Profiles {
		base, ok := builtin[name]
		if !ok {
			continue
		}
		if !md.IsDefined("profiles", name, "chat_id") {
			p.ChatID = base.ChatID
		}
		if !md.IsDefined("profiles", name, "footer_url") {
			p.FooterURL = base.FooterURL
		}
		if !md.IsDefined("profiles", name, "publish_gists") {
			p.PublishGists = base.PublishGists
		}
		c.Profiles[name] = p
	}
}

func Write(cfgPath string, cfg Config) error {
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config with %w", err)
	}
	basePath := path.Dir(cfgPath)
	err = os.MkdirAll(basePath, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create base config directory at '%s' with %w", basePath, err)
	}
	err = os.WriteFile(cfgPath, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write into config file at '%s' with %w", cfgPath, err)
	}
	slog.Info("config written", "at", cfgPath)
	return nil
}

func Default() Config {
	return Config{
		Source: SourceConfig{
			Owner: "zsxcoder",
			Repo:  "weibo",
			Count: 6,
		},
		Format: FormatConfig{
			Locale:   format.DefaultLocale,
			Timezone: "UTC",
		},
		Profile: ProfileGist,
		Profiles: map[string]ProfileConfig{
			ProfileGist: {
				ChatID:       -1001249449971,
				FooterURL:    "https://simonaking.com/blog/weibo",
				PublishGists: true,
			},
			ProfileChat: {
				FooterURL: "https://github.com/zsxcoder/weibo/issues",
			},
		},
	}
}

// DefaultPath returns the config location under XDG_CONFIG_HOME, or
// ~/.config when it is unset.
func DefaultPath() (string, error) {
	var xdgHome = os.Getenv("XDG_CONFIG_HOME")
	if xdgHome != "" {
		return path.Join(xdgHome, baseCfgPath), nil
	}

	var home = os.Getenv("HOME")
	if home != "" {
		return path.Join(home, ".config", baseCfgPath), nil
	}

	return "", errors.New("neither XDG_CONFIG_HOME nor HOME is set, pass --config")
}

// Resolve validates the configuration and binds it to the credentials.
// profile overrides Config.Profile when non-empty.
func (c Config) Resolve(profile string, creds Credentials) (Settings, error) {
	var errs []error

	if profile == "" {
		profile = c.Profile
	}
	p, ok := c.Profiles[profile]
	if !ok {
		names := make([]string, 0, len(c.Profiles))
		for name := range c.Profiles {
			names = append(names, name)
		}
		sort.Strings(names)
		errs = append(errs, fmt.Errorf("unknown profile '%s', known: %s", profile, strings.Join(names, ", ")))
	}

	if c.Source.Owner == "" || c.Source.Repo == "" {
		errs = append(errs, errors.New("source owner and repo are required"))
	}
	if c.Source.Count <= 0 || c.Source.Count > 100 {
		errs = append(errs, fmt.Errorf("source count must be within 1..100, got %d", c.Source.Count))
	}
	if ok && p.ChatID == 0 {
		errs = append(errs, fmt.Errorf("profile '%s' has no chat_id", profile))
	}
	if ok && p.FooterURL == "" {
		errs = append(errs, fmt.Errorf("profile '%s' has no footer_url", profile))
	}
	if missing := creds.Telegram.MissingAppKeys(); len(missing) > 0 {
		errs = append(errs, fmt.Errorf("telegram bot token is set without %s", strings.Join(missing, ", ")))
	}
	if _, err := format.DateLayout(c.Format.Locale); err != nil {
		errs = append(errs, err)
	}

	tz := c.Format.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone '%s' with %w", tz, err))
	}

	if len(errs) > 0 {
		return Settings{}, errors.Join(errs...)
	}

	return Settings{
		Owner:           c.Source.Owner,
		Repo:            c.Source.Repo,
		Count:           c.Source.Count,
		Profile:         profile,
		ChatID:          p.ChatID,
		FooterURL:       p.FooterURL,
		PublishGists:    p.PublishGists,
		Locale:          c.Format.Locale,
		Location:        loc,
		SessionPath:     c.Telegram.SessionPath,
		CheckImageType:  c.Telegram.CheckImageType,
		ExitOnFailure:   c.ExitOnFailure,
		ParallelPublish: c.ParallelPublish,
		Credentials:     creds,
	}, nil
}
