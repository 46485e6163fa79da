package config

import "fmt"

// Profile is a named set of overrides in the configuration file.
// Zero values leave the setting unchanged; CompressionLevel and Strip are
// pointers because their zero values are meaningful.
type Profile struct {
	KeyBits          int    `yaml:"keyBits,omitempty"`
	Mode             string `yaml:"mode,omitempty"`
	Workers          int    `yaml:"workers,omitempty"`
	CompressionLevel *int   `yaml:"compressionLevel,omitempty"`
	Strip            *bool  `yaml:"strip,omitempty"`
}

// File represents the structure of the .pngcipher configuration file.
type File struct {
	// Defaults apply to every run.
	Defaults Profile `yaml:"defaults,omitempty"`

	// Profiles are selected with --profile and override Defaults.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// GetProfile returns Defaults merged with the named profile. An empty name
// returns Defaults alone.
func (cf *File) GetProfile(name string) (Profile, error) {
	result := cf.Defaults
	if name == "" {
		return result, nil
	}

	p, ok := cf.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	if p.KeyBits != 0 {
		result.KeyBits = p.KeyBits
	}
	if p.Mode != "" {
		result.Mode = p.Mode
	}
	if p.Workers != 0 {
		result.Workers = p.Workers
	}
	if p.CompressionLevel != nil {
		result.CompressionLevel = p.CompressionLevel
	}
	if p.Strip != nil {
		result.Strip = p.Strip
	}
	return result, nil
}
