// Package llm calls OpenAI-compatible chat-completion endpoints.
//
// Client handles the wire protocol and surfaces non-2xx responses as
// typed APIErrors whose status codes feed retry classification. Memoizer
// wraps any CompletionService with response caching and request collapse
// so identical deterministic prompts cost one upstream call.
package llm
