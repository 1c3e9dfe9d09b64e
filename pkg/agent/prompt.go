package agent

import (
	"strings"

	"github.com/papercomputeco/parley/pkg/history"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/memory"
)

const noMoreToolsPrompt = "No further tools are available for this request. " +
	"Answer my last message now using only the information you already have."

// toMessages converts stored messages for the generator. Stored tool
// entries carry no call correlation and are left out.
func toMessages(window []history.Message) []llm.Message {
	out := make([]llm.Message, 0, len(window))
	for _, m := range window {
		switch m.Role {
		case history.RoleUser:
			out = append(out, llm.NewTextMessage(llm.RoleUser, m.Content))
		case history.RoleAssistant:
			out = append(out, llm.NewTextMessage(llm.RoleAssistant, m.Content))
		}
	}
	return out
}

// conversation is the chronological window ending with the current user
// message. The window normally already ends with it.
func conversation(window []history.Message, current *history.Message) []llm.Message {
	messages := toMessages(window)
	if n := len(window); n == 0 || window[n-1].ID != current.ID {
		messages = append(messages, llm.NewTextMessage(llm.RoleUser, current.Content))
	}
	return messages
}

// priorTurns is the window without the current user message.
func priorTurns(window []history.Message, current *history.Message) []llm.Message {
	prior := make([]history.Message, 0, len(window))
	for _, m := range window {
		if m.ID != current.ID {
			prior = append(prior, m)
		}
	}
	return toMessages(prior)
}

// finalMessages frames the tool-free generation forced at the round limit.
func finalMessages(messages []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages)+1)
	out = append(out, messages...)
	return append(out, llm.NewTextMessage(llm.RoleUser, noMoreToolsPrompt))
}

// systemPrompt appends the long-term memory block, if any, to base.
func systemPrompt(base, memoryBlock string) string {
	if memoryBlock == "" {
		return base
	}
	return base + "\n\n" + memoryBlock
}

// memoryBlock labels recalled facts by role. Roles without facts are
// omitted; no facts at all yields "".
func memoryBlock(facts map[memory.Role][]string) string {
	var b strings.Builder
	for _, role := range memory.Roles() {
		list := facts[role]
		if len(list) == 0 {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("Long-term memory relevant to this conversation:\n")
		}
		b.WriteString(roleLabel(role))
		b.WriteString(":\n")
		for _, f := range list {
			b.WriteString("- ")
			b.WriteString(f)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func roleLabel(role memory.Role) string {
	switch role {
	case memory.RoleUser:
		return "About the user"
	case memory.RoleAssistant:
		return "About the assistant"
	default:
		return string(role)
	}
}
