package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup only applies on linux")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(xdg, "nsqwire"); dir != want {
		t.Errorf("GetConfigDir() = %q, want %q", dir, want)
	}

	path, err := GetProfilePath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "profile.yaml" {
		t.Errorf("GetProfilePath() = %q, want profile.yaml", path)
	}
}

func TestDefaultIdentify(t *testing.T) {
	id := DefaultIdentify()

	if id.DeflateLevel != 6 {
		t.Errorf("DeflateLevel = %d, want 6", id.DeflateLevel)
	}
	if id.HeartbeatInterval != 30000 {
		t.Errorf("HeartbeatInterval = %d, want 30000", id.HeartbeatInterval)
	}
	if id.OutputBufferSize != 16384 {
		t.Errorf("OutputBufferSize = %d, want 16384", id.OutputBufferSize)
	}
	if id.OutputBufferTimeout != 250 {
		t.Errorf("OutputBufferTimeout = %d, want 250", id.OutputBufferTimeout)
	}
	if !id.FeatureNegotiation {
		t.Error("FeatureNegotiation should be true by default")
	}
	if !strings.HasPrefix(id.UserAgent, "nsqwire/") {
		t.Errorf("UserAgent = %q, want nsqwire/ prefix", id.UserAgent)
	}
	if id.ClientID != id.Hostname {
		t.Errorf("ClientID = %q, want hostname %q", id.ClientID, id.Hostname)
	}
	if err := id.Validate(); err != nil {
		t.Errorf("default document invalid: %v", err)
	}
}

func TestIdentify_Setters(t *testing.T) {
	base := DefaultIdentify()
	id := base.WithClientID("c1").WithHostname("h1").WithUserAgent("ua/1").WithSnappy(true).WithSampleRate(10)

	if id.ClientID != "c1" || id.Hostname != "h1" || id.UserAgent != "ua/1" || !id.Snappy || id.SampleRate != 10 {
		t.Errorf("setters produced %+v", id)
	}
	if base.ClientID == "c1" {
		t.Error("setters modified the receiver")
	}
}

func TestIdentify_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(Identify) Identify
		wantErr string
	}{
		{"defaults", func(i Identify) Identify { return i }, ""},
		{"deflate level zero", func(i Identify) Identify { return i.WithDeflate(true, 0) }, "deflate_level"},
		{"deflate level ten", func(i Identify) Identify { return i.WithDeflate(true, 10) }, "deflate_level"},
		{"deflate off ignores level", func(i Identify) Identify { return i.WithDeflate(false, 0) }, ""},
		{"deflate and snappy", func(i Identify) Identify { return i.WithDeflate(true, 6).WithSnappy(true) }, "both"},
		{"sample rate 100", func(i Identify) Identify { return i.WithSampleRate(100) }, "sample_rate"},
		{"heartbeat disabled", func(i Identify) Identify { return i.WithHeartbeatInterval(-1) }, ""},
		{"heartbeat too short", func(i Identify) Identify { return i.WithHeartbeatInterval(999) }, "heartbeat_interval"},
		{"empty user agent", func(i Identify) Identify { return i.WithUserAgent("") }, "user_agent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.modify(DefaultIdentify()).Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestIdentify_JSON(t *testing.T) {
	id := Identify{ClientID: "c", UserAgent: "ua", HeartbeatInterval: 30000}
	data, err := id.JSON()
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["client_id"] != "c" {
		t.Errorf("client_id = %v, want c", doc["client_id"])
	}
	if doc["heartbeat_interval"] != float64(30000) {
		t.Errorf("heartbeat_interval = %v, want 30000", doc["heartbeat_interval"])
	}
	if _, ok := doc["short_id"]; ok {
		t.Error("empty short_id should be omitted")
	}
	if _, ok := doc["tls_v1"]; !ok {
		t.Error("tls_v1 should always be present")
	}
}

func TestLoadProfile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr bool
		verify  func(t *testing.T, p *Profile)
	}{
		{
			name: "yaml overlay keeps defaults",
			file: "profile.yaml",
			content: `version: 1
topic: events
channel: archive
identify:
  client_id: worker-7
  snappy: true
`,
			verify: func(t *testing.T, p *Profile) {
				if p.Topic != "events" || p.Channel != "archive" {
					t.Errorf("topic/channel = %q/%q", p.Topic, p.Channel)
				}
				if p.Identify.ClientID != "worker-7" || !p.Identify.Snappy {
					t.Errorf("identify = %+v", p.Identify)
				}
				if p.Identify.HeartbeatInterval != DefaultHeartbeatInterval {
					t.Errorf("HeartbeatInterval = %d, want default", p.Identify.HeartbeatInterval)
				}
			},
		},
		{
			name: "toml overlay keeps defaults",
			file: "profile.toml",
			content: `version = 1
topic = "events"

[identify]
user_agent = "custom/2.0"
heartbeat_interval = 15000
`,
			verify: func(t *testing.T, p *Profile) {
				if p.Identify.UserAgent != "custom/2.0" {
					t.Errorf("UserAgent = %q, want custom/2.0", p.Identify.UserAgent)
				}
				if p.Identify.HeartbeatInterval != 15000 {
					t.Errorf("HeartbeatInterval = %d, want 15000", p.Identify.HeartbeatInterval)
				}
				if p.Identify.OutputBufferSize != DefaultOutputBufferSize {
					t.Errorf("OutputBufferSize = %d, want default", p.Identify.OutputBufferSize)
				}
			},
		},
		{
			name:    "yaml unknown key",
			file:    "profile.yml",
			content: "version: 1\nidentify:\n  client_idd: x\n",
			wantErr: true,
		},
		{
			name:    "toml unknown key",
			file:    "profile.toml",
			content: "version = 1\n[identify]\nclient_idd = \"x\"\n",
			wantErr: true,
		},
		{
			name:    "unsupported version",
			file:    "profile.yaml",
			content: "version: 2\n",
			wantErr: true,
		},
		{
			name:    "unsupported extension",
			file:    "profile.json",
			content: "{}",
			wantErr: true,
		},
		{
			name:    "empty yaml",
			file:    "profile.yaml",
			content: "",
			verify: func(t *testing.T, p *Profile) {
				if p.Version != ProfileVersion {
					t.Errorf("Version = %d, want %d", p.Version, ProfileVersion)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			p, err := LoadProfile(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadProfile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.verify != nil && err == nil {
				tt.verify(t, p)
			}
		})
	}
}

func TestLoadProfile_MissingFile(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if p.Identify.DeflateLevel != DefaultDeflateLevel {
		t.Errorf("missing file did not yield defaults: %+v", p.Identify)
	}
}

func TestLoadProfile_EnvOverrides(t *testing.T) {
	t.Setenv(EnvUserAgent, "env-agent/1")
	t.Setenv(EnvClientID, "env-client")

	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nidentify:\n  client_id: file-client\n"), 0600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Identify.UserAgent != "env-agent/1" {
		t.Errorf("UserAgent = %q, want env-agent/1", p.Identify.UserAgent)
	}
	if p.Identify.ClientID != "env-client" {
		t.Errorf("ClientID = %q, want env-client", p.Identify.ClientID)
	}
}

func TestSaveProfile_RoundTrip(t *testing.T) {
	for _, name := range []string{"profile.yaml", "profile.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			p := NewProfile()
			p.Topic = "events"
			p.Channel = "archive"
			p.Identify = p.Identify.WithClientID("round-trip").WithDeflate(true, 3)

			if err := SaveProfile(p, path); err != nil {
				t.Fatalf("SaveProfile() error = %v", err)
			}
			if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
				t.Error("temporary file left behind")
			}

			loaded, err := LoadProfile(path)
			if err != nil {
				t.Fatalf("LoadProfile() error = %v", err)
			}
			if loaded.Topic != "events" || loaded.Channel != "archive" {
				t.Errorf("topic/channel = %q/%q", loaded.Topic, loaded.Channel)
			}
			if loaded.Identify != p.Identify {
				t.Errorf("identify = %+v, want %+v", loaded.Identify, p.Identify)
			}
		})
	}
}
