package config

// BuildConfig holds build behaviour and performance knobs.
type BuildConfig struct {
	// Drafts includes draft documents (preview mode).
	Drafts bool `yaml:"drafts,omitempty"`
	// Future includes documents dated in the future.
	Future bool `yaml:"future,omitempty"`
	// Mode is strict (default) or lenient.
	Mode BuildMode `yaml:"mode,omitempty"`
	// Workers bounds parallel loading and rendering; defaults to GOMAXPROCS.
	Workers int `yaml:"workers,omitempty"`
	// GitInfo fills missing lastmod dates from the content repository history.
	GitInfo bool `yaml:"git_info,omitempty"`
}

// Lenient reports whether per-page failures are collected rather than fatal.
func (b BuildConfig) Lenient() bool { return b.Mode == BuildModeLenient }
