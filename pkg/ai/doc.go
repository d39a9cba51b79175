// Package ai calls large language models on behalf of the board secretary
// features: document summaries, chat over board documents, meeting minutes
// and action item extraction.
//
// A Provider talks to one backend (OpenRouter or Anthropic). Client wraps a
// provider with retries and a circuit breaker and owns the prompts.
package ai
