package response

import (
	"github.com/haiintel/dashboard/internal/model/chat"
)

// Seed provides the default canned responses shipped with the assistant.
func Seed() []chat.Response {
	return []chat.Response{
		{
			Prompt:      "what is haiintel",
			Reply:       "HaiIntel builds human-centered AI experiences that merge design, performance, and intelligence.",
			Suggestions: []string{"What services do you offer?", "Tell me about design philosophy"},
		},
		{
			Prompt:      "ai design",
			Reply:       "We specialize in AI-native UI systems, intelligent workflows, and high-performance interfaces.",
			Suggestions: []string{"Show examples", "How do you build AI-native UI?"},
		},
	}
}
