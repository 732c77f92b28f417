package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	appName     = "nsqwire"
	profileFile = "profile.yaml"
)

// Environment overrides applied after a profile is loaded
const (
	EnvUserAgent = "NSQWIRE_USER_AGENT"
	EnvClientID  = "NSQWIRE_CLIENT_ID"
)

// Profile formats, chosen by file extension
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/nsqwire or $HOME/.config/nsqwire
//   - macOS: $HOME/.config/nsqwire
//   - Windows: %LOCALAPPDATA%\nsqwire
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetProfilePath returns the default profile location
func GetProfilePath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, profileFile), nil
}

// FormatForPath returns the profile format implied by a file name
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported profile extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// LoadProfile reads a profile from path. Keys missing from the file keep
// their default values. A missing file yields the default profile.
// Environment overrides are applied last.
func LoadProfile(path string) (*Profile, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	profile := NewProfile()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		applyEnv(profile)
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	switch format {
	case FormatYAML:
		err = decodeYAML(data, profile)
	case FormatTOML:
		err = decodeTOML(data, profile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if strings.TrimSpace(profile.Identify.UserAgent) == "" {
		profile.Identify.UserAgent = DefaultUserAgent()
	}
	if profile.Version != ProfileVersion {
		return nil, fmt.Errorf("unsupported profile version: %d (expected %d)", profile.Version, ProfileVersion)
	}

	applyEnv(profile)
	return profile, nil
}

// LoadDefaultProfile loads the profile from GetProfilePath
func LoadDefaultProfile() (*Profile, error) {
	path, err := GetProfilePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile path: %w", err)
	}
	return LoadProfile(path)
}

func decodeYAML(data []byte, profile *Profile) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(profile); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(data []byte, profile *Profile) error {
	meta, err := toml.Decode(string(data), profile)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func applyEnv(profile *Profile) {
	if ua := strings.TrimSpace(os.Getenv(EnvUserAgent)); ua != "" {
		profile.Identify.UserAgent = ua
	}
	if id := strings.TrimSpace(os.Getenv(EnvClientID)); id != "" {
		profile.Identify.ClientID = id
	}
}

// SaveProfile writes the profile to path in the format implied by its
// extension. The write is atomic: a temporary file is renamed over path.
func SaveProfile(profile *Profile, path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("# nsqwire client profile\n# Location: " + path + "\n\n")

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(profile); err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(profile); err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write temporary profile: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}
