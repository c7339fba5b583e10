// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with language models inside agentteam.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Map external provider ids onto a closed set of wire protocols
//     (ProviderKind) so unknown ids fail when configuration is loaded
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (Anthropic, OpenAI and OpenAI compatible endpoints) implement the
// Model interface from this package so participants remain decoupled from
// vendor SDKs.
package model
