// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.eventrag/config.toml
//   - PromptStore: user-editable prompt templates under ~/.eventrag/prompts
package file
