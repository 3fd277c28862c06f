// Package secret provides a small, dependency-light secret resolution layer
// for provider credentials (OpenAI API keys, Notion integration tokens,
// Trello key/token pairs, GitHub App keys, Google service account keys).
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider + Registry)
//   - Concrete env and file providers (see EnvProvider, FileProvider)
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:OPENAI_API_KEY
//   - Inline use:  Bearer secretref:env:NOTION_TOKEN
package secret
