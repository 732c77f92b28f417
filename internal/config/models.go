package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/muurk/nsqwire/internal/version"
)

// Identify is the feature document sent with the IDENTIFY command.
// Field names follow the nsqd wire names.
type Identify struct {
	ClientID  string `json:"client_id,omitempty" yaml:"client_id,omitempty" toml:"client_id"`
	ShortID   string `json:"short_id,omitempty" yaml:"short_id,omitempty" toml:"short_id"`
	LongID    string `json:"long_id,omitempty" yaml:"long_id,omitempty" toml:"long_id"`
	Hostname  string `json:"hostname,omitempty" yaml:"hostname,omitempty" toml:"hostname"`
	UserAgent string `json:"user_agent" yaml:"user_agent" toml:"user_agent"`

	// Compression
	Deflate      bool `json:"deflate" yaml:"deflate" toml:"deflate"`
	DeflateLevel int  `json:"deflate_level" yaml:"deflate_level" toml:"deflate_level"`
	Snappy       bool `json:"snappy" yaml:"snappy" toml:"snappy"`

	FeatureNegotiation bool `json:"feature_negotiation" yaml:"feature_negotiation" toml:"feature_negotiation"`

	// Milliseconds between heartbeats; -1 disables them
	HeartbeatInterval int64 `json:"heartbeat_interval" yaml:"heartbeat_interval" toml:"heartbeat_interval"`
	// Milliseconds before nsqd considers a delivery timed out; 0 uses the server default
	MsgTimeout uint32 `json:"msg_timeout,omitempty" yaml:"msg_timeout,omitempty" toml:"msg_timeout"`

	OutputBufferSize    int64 `json:"output_buffer_size" yaml:"output_buffer_size" toml:"output_buffer_size"`
	OutputBufferTimeout int64 `json:"output_buffer_timeout" yaml:"output_buffer_timeout" toml:"output_buffer_timeout"`

	// Percentage of the channel to sample
	SampleRate int `json:"sample_rate" yaml:"sample_rate" toml:"sample_rate"`

	TLSv1 bool `json:"tls_v1" yaml:"tls_v1" toml:"tls_v1"`
}

// Defaults
const (
	DefaultDeflateLevel        = 6
	DefaultHeartbeatInterval   = 30000
	DefaultOutputBufferSize    = 16384
	DefaultOutputBufferTimeout = 250
)

// DefaultUserAgent returns the user agent sent when none is configured
func DefaultUserAgent() string {
	return "nsqwire/" + version.Short()
}

// DefaultIdentify returns an Identify document with every identifier set to
// the local hostname.
func DefaultIdentify() Identify {
	host, _ := os.Hostname()
	return Identify{
		ClientID:            host,
		ShortID:             host,
		LongID:              host,
		Hostname:            host,
		UserAgent:           DefaultUserAgent(),
		DeflateLevel:        DefaultDeflateLevel,
		FeatureNegotiation:  true,
		HeartbeatInterval:   DefaultHeartbeatInterval,
		OutputBufferSize:    DefaultOutputBufferSize,
		OutputBufferTimeout: DefaultOutputBufferTimeout,
	}
}

// WithClientID returns a copy with the client id set
func (i Identify) WithClientID(id string) Identify {
	i.ClientID = id
	return i
}

// WithHostname returns a copy with the hostname set
func (i Identify) WithHostname(host string) Identify {
	i.Hostname = host
	return i
}

// WithUserAgent returns a copy with the user agent set
func (i Identify) WithUserAgent(ua string) Identify {
	i.UserAgent = ua
	return i
}

// WithSnappy returns a copy with snappy compression toggled
func (i Identify) WithSnappy(on bool) Identify {
	i.Snappy = on
	return i
}

// WithDeflate returns a copy with deflate compression toggled at level
func (i Identify) WithDeflate(on bool, level int) Identify {
	i.Deflate = on
	i.DeflateLevel = level
	return i
}

// WithHeartbeatInterval returns a copy with the heartbeat interval in milliseconds
func (i Identify) WithHeartbeatInterval(ms int64) Identify {
	i.HeartbeatInterval = ms
	return i
}

// WithSampleRate returns a copy with the sample rate set
func (i Identify) WithSampleRate(rate int) Identify {
	i.SampleRate = rate
	return i
}

// Validate checks the document against the ranges nsqd accepts.
// All problems are reported together.
func (i Identify) Validate() error {
	var errs []error

	if i.Deflate && (i.DeflateLevel < 1 || i.DeflateLevel > 9) {
		errs = append(errs, fmt.Errorf("deflate_level must be 1-9, got %d", i.DeflateLevel))
	}
	if i.Deflate && i.Snappy {
		errs = append(errs, errors.New("deflate and snappy cannot both be enabled"))
	}
	if i.SampleRate < 0 || i.SampleRate > 99 {
		errs = append(errs, fmt.Errorf("sample_rate must be 0-99, got %d", i.SampleRate))
	}
	if i.HeartbeatInterval != -1 && i.HeartbeatInterval < 1000 {
		errs = append(errs, fmt.Errorf("heartbeat_interval must be -1 or at least 1000ms, got %d", i.HeartbeatInterval))
	}
	if i.OutputBufferSize < -1 {
		errs = append(errs, fmt.Errorf("output_buffer_size must be -1 or positive, got %d", i.OutputBufferSize))
	}
	if i.OutputBufferTimeout < -1 {
		errs = append(errs, fmt.Errorf("output_buffer_timeout must be -1 or positive, got %d", i.OutputBufferTimeout))
	}
	if i.UserAgent == "" {
		errs = append(errs, errors.New("user_agent cannot be empty"))
	}

	return errors.Join(errs...)
}

// JSON encodes the document as the IDENTIFY payload
func (i Identify) JSON() ([]byte, error) {
	data, err := json.Marshal(i)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal identify document: %w", err)
	}
	return data, nil
}

// Profile is the on-disk client profile
type Profile struct {
	Version  int      `yaml:"version" toml:"version"`
	Identify Identify `yaml:"identify" toml:"identify"`
	Topic    string   `yaml:"topic,omitempty" toml:"topic"`
	Channel  string   `yaml:"channel,omitempty" toml:"channel"`
}

// ProfileVersion is the only profile version this build understands
const ProfileVersion = 1

// NewProfile creates a Profile with default values
func NewProfile() *Profile {
	return &Profile{
		Version:  ProfileVersion,
		Identify: DefaultIdentify(),
	}
}
