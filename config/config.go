package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the SMT programming system update feed
const (
	DefaultDescriptorURL = "https://smtapi.smtoem.cn/updateFlie/Autoupdater.xml"
	DefaultInstallerURL  = "https://smtapi.smtoem.cn/updateFlie/羽华SMT快速编程系统NetworkSetup.exe"
	DefaultPackageURL    = "https://smtapi.smtoem.cn/updateFlie/update.zip"
	DefaultChangelogURL  = "https://smtapi.smtoem.cn/updateFlie/update.html"
	DefaultBaseURL       = "https://smtapi.smtoem.cn/updateFlie/"

	DefaultFolderPrefix  = "版本-"
	DefaultInstallerName = "羽华SMT快速编程系统NetworkSetup.exe"
	DefaultPackageName   = "update.zip"
	DefaultChangelogName = "UpdateLogv5.0.htm"
	DefaultLogFile       = "update.log"
)

// UpdaterConfig holds all configuration values for one update check
type UpdaterConfig struct {
	DescriptorURL string // Update descriptor (XML with a version element)
	InstallerURL  string // Full installer
	PackageURL    string // Incremental update package
	ChangelogURL  string // Changelog page
	BaseURL       string // Base for resolving relative links in the changelog

	WorkDir       string // Directory holding the version folders
	FolderPrefix  string // Version folder name prefix
	InstallerName string
	PackageName   string
	ChangelogName string

	FetchTimeout    time.Duration
	FetchAttempts   int
	FetchRetryDelay time.Duration
	DownloadTimeout time.Duration

	RewriteLinks      bool
	ParallelDownloads bool

	LogFile  string
	LogLevel string // Logging level (DEBUG, INFO, WARN, ERROR)
}

// LoadConfig loads the configuration from environment variables, falling
// back to the built-in defaults for anything unset
func LoadConfig() (*UpdaterConfig, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: .env file could not be loaded: %v", err)
	}

	env := NewEnvValidator()

	fetchTimeout, err := env.GetDuration("UPDATE_FETCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	fetchAttempts, err := env.GetInt("UPDATE_FETCH_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	retryDelay, err := env.GetDuration("UPDATE_FETCH_RETRY_DELAY", time.Second)
	if err != nil {
		return nil, err
	}
	downloadTimeout, err := env.GetDuration("UPDATE_DOWNLOAD_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	rewrite, err := env.GetBool("UPDATE_REWRITE_LINKS", true)
	if err != nil {
		return nil, err
	}
	parallel, err := env.GetBool("UPDATE_PARALLEL_DOWNLOADS", false)
	if err != nil {
		return nil, err
	}

	config := &UpdaterConfig{
		DescriptorURL:     env.GetString("UPDATE_DESCRIPTOR_URL", DefaultDescriptorURL),
		InstallerURL:      env.GetString("UPDATE_INSTALLER_URL", DefaultInstallerURL),
		PackageURL:        env.GetString("UPDATE_PACKAGE_URL", DefaultPackageURL),
		ChangelogURL:      env.GetString("UPDATE_CHANGELOG_URL", DefaultChangelogURL),
		BaseURL:           env.GetString("UPDATE_BASE_URL", DefaultBaseURL),
		WorkDir:           env.GetString("UPDATE_WORK_DIR", "."),
		FolderPrefix:      env.GetString("UPDATE_FOLDER_PREFIX", DefaultFolderPrefix),
		InstallerName:     env.GetString("UPDATE_INSTALLER_NAME", DefaultInstallerName),
		PackageName:       env.GetString("UPDATE_PACKAGE_NAME", DefaultPackageName),
		ChangelogName:     env.GetString("UPDATE_CHANGELOG_NAME", DefaultChangelogName),
		FetchTimeout:      fetchTimeout,
		FetchAttempts:     fetchAttempts,
		FetchRetryDelay:   retryDelay,
		DownloadTimeout:   downloadTimeout,
		RewriteLinks:      rewrite,
		ParallelDownloads: parallel,
		LogFile:           env.GetString("UPDATE_LOG_FILE", DefaultLogFile),
		LogLevel:          strings.ToUpper(env.GetString("LOG_LEVEL", "INFO")),
	}

	return config, nil
}

// Validate performs additional validation on the loaded configuration
func (c *UpdaterConfig) Validate() error {
	urls := map[string]string{
		"UPDATE_DESCRIPTOR_URL": c.DescriptorURL,
		"UPDATE_INSTALLER_URL":  c.InstallerURL,
		"UPDATE_PACKAGE_URL":    c.PackageURL,
		"UPDATE_CHANGELOG_URL":  c.ChangelogURL,
	}
	for name, raw := range urls {
		if err := validateHTTPURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.BaseURL != "" {
		if err := validateHTTPURL(c.BaseURL); err != nil {
			return fmt.Errorf("UPDATE_BASE_URL: %w", err)
		}
	}

	if c.FolderPrefix == "" {
		return fmt.Errorf("folder prefix cannot be empty")
	}
	for name, file := range map[string]string{
		"installer": c.InstallerName,
		"package":   c.PackageName,
		"changelog": c.ChangelogName,
	} {
		if file == "" || strings.ContainsAny(file, `/\`) {
			return fmt.Errorf("%s file name must be a plain non-empty name, got: %q", name, file)
		}
	}

	if c.FetchAttempts < 1 {
		return fmt.Errorf("fetch attempts must be at least 1, got: %d", c.FetchAttempts)
	}
	if c.FetchTimeout <= 0 || c.DownloadTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.FetchRetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}

	validLogLevels := map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s. Valid levels are: DEBUG, INFO, WARN, ERROR", c.LogLevel)
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL, got: %q", raw)
	}
	return nil
}
