package ai

import (
	"strings"

	"edu-tutor/internal/domain/ports/adapter"
)

// systemText returns the leading system message, if any.
func systemText(msgs []adapter.Message) string {
	if len(msgs) > 0 && strings.EqualFold(msgs[0].Role, "system") {
		return msgs[0].Content
	}
	return ""
}

func withoutSystem(msgs []adapter.Message) []adapter.Message {
	if systemText(msgs) != "" {
		return msgs[1:]
	}
	return msgs
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
