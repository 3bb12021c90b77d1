// Package provider defines the contract between conversational pipelines and
// streaming text-generation providers backed by external agent processes.
//
// A Provider turns one dialogue turn into a lazy, single-pass Stream of text
// fragments. Fragments are either generated content or status fragments
// (diagnostics wrapped with StatusPrefix). Providers never fail the stream
// abruptly: every error mode degrades to a synthetic fragment or a silent
// skip, so the consuming pipeline's streaming contract holds.
package provider

import "context"

// Provider produces one streamed response per dialogue turn.
//
// Respond is not restartable; each call is an independent exchange with the
// backing agent process. sessionID scopes resume handles and abort-block
// state across turns and may be empty for one-off exchanges.
type Provider interface {
	Respond(ctx context.Context, sessionID string, dialogue Dialogue) *Stream
}

// SummarizeFunc condenses raw agent diagnostics into a short human-readable
// message. Returning "" drops the diagnostic. Implementations are external
// collaborators; providers tolerate panics and treat them as "no summary".
type SummarizeFunc func(text string) string
