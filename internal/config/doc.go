// Package config manages the client profile: the IDENTIFY document plus the
// default topic and channel used by the CLI.
//
// Profiles may be written in YAML or TOML; the format is chosen from the file
// extension. Keys absent from the file keep their defaults, and unknown keys
// are rejected in both formats.
//
// # Profile Location
//
//   - Linux: $XDG_CONFIG_HOME/nsqwire/profile.yaml or $HOME/.config/nsqwire/profile.yaml
//   - macOS: $HOME/.config/nsqwire/profile.yaml
//   - Windows: %LOCALAPPDATA%\nsqwire\profile.yaml
//
// # Example
//
//	version: 1
//	topic: events
//	channel: archive
//	identify:
//	  client_id: worker-7
//	  snappy: true
//	  heartbeat_interval: 15000
//
// # Usage
//
//	profile, err := config.LoadProfile(path)
//	if err != nil {
//	    return err
//	}
//	if err := profile.Identify.Validate(); err != nil {
//	    return err
//	}
//	doc, _ := profile.Identify.JSON()
//	cmd := protocol.Identify(doc)
//
// NSQWIRE_USER_AGENT and NSQWIRE_CLIENT_ID override the loaded values.
package config
