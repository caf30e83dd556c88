// Package tokens provides token counting and context-window budgeting.
//
// Token counts are estimates based on a character-to-token ratio (~4 chars
// per token for English text). Estimates round up, so a prompt that passes a
// budget check here will not be rejected by a stricter downstream check for
// being fractionally over.
//
// ContextBudget splits a model's context window between prompt and
// completion, reserving a percentage (default 25%) for the model's output.
package tokens
