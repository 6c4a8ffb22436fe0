package chat

// Response is a canned reply selected by the matcher.
type Response struct {
	Prompt      string   `json:"prompt" yaml:"prompt" toml:"prompt"`
	Reply       string   `json:"reply" yaml:"reply" toml:"reply"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty" toml:"suggestions,omitempty"`
}
