// Package llm adapts an OpenAI-compatible chat-completions endpoint to the
// Model interface used by the orchestrator and the intent guard.
//
// The default endpoint is the HuggingFace inference router serving
// Qwen/Qwen2.5-Coder-32B-Instruct. Any provider that speaks the
// /v1/chat/completions wire format can be configured instead.
//
// Tool results are sent with the "user" role because several providers
// reject two assistant turns in a row; their content keeps the
// "Calendar Tool Output:" marker so the model can tell them apart.
package llm
