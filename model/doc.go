// Package model defines the chat capability contract used by agents. The
// runtime treats the language model as opaque: messages plus tool definitions
// in, a single assistant response out. Provider adapters live in the openai
// and anthropic subpackages; ScriptedModel provides deterministic responses
// for tests and local gate runs.
package model
