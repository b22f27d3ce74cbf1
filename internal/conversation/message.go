// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import "time"

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the conversation.
type Message struct {
	Role    Role
	Content string
	Time    time.Time
}

// NewUserMessage creates a user turn stamped now.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Time: time.Now()}
}

// NewAssistantMessage creates an assistant turn stamped now.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Time: time.Now()}
}
