// Package store persists SideFX Web API credentials and the cached access
// token between CLI invocations.
//
// The persisted document is an INI file with two sections:
//   - [Auth]: client_id and client_secret_key, written once by interactive setup
//   - [Cache]: access_token and access_token_expiry, rewritten on token refresh
//
// Two backends are provided with different security tradeoffs:
//   - File: local filesystem storage with atomic writes and 0600 permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential
//     Manager, Linux Secret Service) holding the same INI document
//
// The store is owned by a single CLI process at a time; there is no
// concurrent-writer protection.
package store
