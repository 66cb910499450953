package config

import (
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"UPDATE_DESCRIPTOR_URL", "UPDATE_INSTALLER_URL", "UPDATE_PACKAGE_URL",
	"UPDATE_CHANGELOG_URL", "UPDATE_BASE_URL", "UPDATE_WORK_DIR",
	"UPDATE_FOLDER_PREFIX", "UPDATE_INSTALLER_NAME", "UPDATE_PACKAGE_NAME",
	"UPDATE_CHANGELOG_NAME", "UPDATE_FETCH_TIMEOUT", "UPDATE_FETCH_ATTEMPTS",
	"UPDATE_FETCH_RETRY_DELAY", "UPDATE_DOWNLOAD_TIMEOUT", "UPDATE_REWRITE_LINKS",
	"UPDATE_PARALLEL_DOWNLOADS", "UPDATE_LOG_FILE", "LOG_LEVEL",
}

// clearConfigEnv blanks every variable LoadConfig reads for the duration of the test
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	if config.DescriptorURL != DefaultDescriptorURL {
		t.Errorf("expected descriptor url %q, got %q", DefaultDescriptorURL, config.DescriptorURL)
	}
	if config.FolderPrefix != "版本-" {
		t.Errorf("expected folder prefix 版本-, got %q", config.FolderPrefix)
	}
	if config.PackageName != "update.zip" {
		t.Errorf("expected package name update.zip, got %q", config.PackageName)
	}
	if config.ChangelogName != "UpdateLogv5.0.htm" {
		t.Errorf("expected changelog name UpdateLogv5.0.htm, got %q", config.ChangelogName)
	}
	if config.FetchTimeout != 10*time.Second || config.DownloadTimeout != 30*time.Second {
		t.Errorf("unexpected timeouts %v / %v", config.FetchTimeout, config.DownloadTimeout)
	}
	if config.FetchAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", config.FetchAttempts)
	}
	if !config.RewriteLinks || config.ParallelDownloads {
		t.Errorf("unexpected flags rewrite=%v parallel=%v", config.RewriteLinks, config.ParallelDownloads)
	}
	if config.LogLevel != "INFO" || config.LogFile != "update.log" {
		t.Errorf("unexpected logging config %q %q", config.LogLevel, config.LogFile)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("defaults should validate, got: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expectError bool
		errorMsg    string
		check       func(t *testing.T, c *UpdaterConfig)
	}{
		{
			name: "overrides",
			envVars: map[string]string{
				"UPDATE_DESCRIPTOR_URL":     "http://mirror.local/feed.xml",
				"UPDATE_FETCH_ATTEMPTS":     "5",
				"UPDATE_FETCH_TIMEOUT":      "2s",
				"UPDATE_DOWNLOAD_TIMEOUT":   "45",
				"UPDATE_PARALLEL_DOWNLOADS": "true",
				"LOG_LEVEL":                 "debug",
			},
			check: func(t *testing.T, c *UpdaterConfig) {
				if c.DescriptorURL != "http://mirror.local/feed.xml" {
					t.Errorf("unexpected descriptor url %q", c.DescriptorURL)
				}
				if c.FetchAttempts != 5 {
					t.Errorf("expected 5 attempts, got %d", c.FetchAttempts)
				}
				if c.FetchTimeout != 2*time.Second {
					t.Errorf("expected 2s, got %v", c.FetchTimeout)
				}
				if c.DownloadTimeout != 45*time.Second {
					t.Errorf("expected 45s, got %v", c.DownloadTimeout)
				}
				if !c.ParallelDownloads {
					t.Error("expected parallel downloads")
				}
				if c.LogLevel != "DEBUG" {
					t.Errorf("expected DEBUG, got %q", c.LogLevel)
				}
			},
		},
		{
			name:        "invalid attempts",
			envVars:     map[string]string{"UPDATE_FETCH_ATTEMPTS": "three"},
			expectError: true,
			errorMsg:    "UPDATE_FETCH_ATTEMPTS must be a valid integer",
		},
		{
			name:        "invalid duration",
			envVars:     map[string]string{"UPDATE_FETCH_TIMEOUT": "soon"},
			expectError: true,
			errorMsg:    "UPDATE_FETCH_TIMEOUT must be a duration",
		},
		{
			name:        "invalid bool",
			envVars:     map[string]string{"UPDATE_REWRITE_LINKS": "maybe"},
			expectError: true,
			errorMsg:    "UPDATE_REWRITE_LINKS must be true or false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			config, err := LoadConfig()

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !strings.HasPrefix(err.Error(), tt.errorMsg) {
					t.Errorf("expected error message to start with %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error but got: %v", err)
			}
			tt.check(t, config)
		})
	}
}

func validConfig() *UpdaterConfig {
	return &UpdaterConfig{
		DescriptorURL:   DefaultDescriptorURL,
		InstallerURL:    DefaultInstallerURL,
		PackageURL:      DefaultPackageURL,
		ChangelogURL:    DefaultChangelogURL,
		BaseURL:         DefaultBaseURL,
		WorkDir:         ".",
		FolderPrefix:    DefaultFolderPrefix,
		InstallerName:   DefaultInstallerName,
		PackageName:     DefaultPackageName,
		ChangelogName:   DefaultChangelogName,
		FetchTimeout:    10 * time.Second,
		FetchAttempts:   3,
		FetchRetryDelay: time.Second,
		DownloadTimeout: 30 * time.Second,
		LogLevel:        "INFO",
	}
}

func TestUpdaterConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *UpdaterConfig)
		expectError bool
	}{
		{name: "valid configuration", mutate: func(c *UpdaterConfig) {}},
		{name: "empty base url allowed", mutate: func(c *UpdaterConfig) { c.BaseURL = "" }},
		{name: "relative descriptor url", mutate: func(c *UpdaterConfig) { c.DescriptorURL = "/feed.xml" }, expectError: true},
		{name: "ftp installer url", mutate: func(c *UpdaterConfig) { c.InstallerURL = "ftp://host/setup.exe" }, expectError: true},
		{name: "bad base url", mutate: func(c *UpdaterConfig) { c.BaseURL = "updates" }, expectError: true},
		{name: "empty prefix", mutate: func(c *UpdaterConfig) { c.FolderPrefix = "" }, expectError: true},
		{name: "nested changelog name", mutate: func(c *UpdaterConfig) { c.ChangelogName = "logs/a.htm" }, expectError: true},
		{name: "empty package name", mutate: func(c *UpdaterConfig) { c.PackageName = "" }, expectError: true},
		{name: "zero attempts", mutate: func(c *UpdaterConfig) { c.FetchAttempts = 0 }, expectError: true},
		{name: "zero timeout", mutate: func(c *UpdaterConfig) { c.DownloadTimeout = 0 }, expectError: true},
		{name: "negative retry delay", mutate: func(c *UpdaterConfig) { c.FetchRetryDelay = -time.Second }, expectError: true},
		{name: "invalid log level", mutate: func(c *UpdaterConfig) { c.LogLevel = "FATAL" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}
