package events

// Mention formatting helpers producing Slack's angle-bracket tag syntax.
// MentionUser and MentionChannel are idempotent: an already-wrapped tag
// passes through unchanged.

import "strings"

// MentionUser formats a user ID as a mention tag, e.g. "U123" → "<@U123>".
func MentionUser(id string) string {
	if strings.HasPrefix(id, "<@") && strings.HasSuffix(id, ">") {
		return id
	}
	if strings.HasPrefix(id, "@") {
		return "<" + id + ">"
	}
	return "<@" + id + ">"
}

// MentionChannel formats a channel ID as a channel tag, e.g. "C123" → "<#C123>".
func MentionChannel(id string) string {
	if strings.HasPrefix(id, "<#") && strings.HasSuffix(id, ">") {
		return id
	}
	if strings.HasPrefix(id, "#") {
		return "<" + id + ">"
	}
	return "<#" + id + ">"
}

// MentionUserGroup formats a user group ID, e.g. "S123" → "<!subteam^S123>".
func MentionUserGroup(id string) string {
	if strings.HasPrefix(id, "<!subteam^") && strings.HasSuffix(id, ">") {
		return id
	}
	return "<!subteam^" + id + ">"
}

// MentionHere notifies active members of a channel.
func MentionHere() string { return "<!here>" }

// MentionChannelAll notifies all members of a channel.
func MentionChannelAll() string { return "<!channel>" }

// MentionEveryone notifies the whole workspace.
func MentionEveryone() string { return "<!everyone>" }
