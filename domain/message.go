// Package domain contains core concepts of the chat system.
// This file defines the lines the server emits.
// Every kind is plain text on the wire, none is tagged.
package domain

import "fmt"

const (
	FarewellNotice = "[server] closing connection, bye"
	UsageNotice    = "[server] usage: /w <target> <message>"
)

// ChatLine is a broadcast chat message.
func ChatLine(name, text string) string {
	return fmt.Sprintf("%s> %s", name, text)
}

// WhisperLine is delivered identically to the target and to the sender.
func WhisperLine(from, to, text string) string {
	return fmt.Sprintf("[whisper] %s → %s: %s", from, to, text)
}

func JoinedNotice(name string) string {
	return fmt.Sprintf("%s joined", name)
}

func LeftNotice(name string) string {
	return fmt.Sprintf("%s left", name)
}

func TargetNotFoundNotice(target string) string {
	return fmt.Sprintf("[server] user '%s' not found", target)
}
