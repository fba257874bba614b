package deckchat

import "github.com/Desarso/deckchat/sessions"

// Re-export session types
type ChatSession = sessions.ChatSession
type ChatStream = sessions.ChatStream
type ChatOptions = sessions.ChatOptions
type WebSocketSession = sessions.WebSocketSession
type WebSocketWriter = sessions.WebSocketWriter
type StreamError = sessions.StreamError
type PartWriter = sessions.PartWriter
