// Package testutil contains helper builders and scripted models used across
// tests to reduce boilerplate when constructing conversation logs and
// participants with controllable behaviour (delays, failures, hangs). They are
// not intended for production usage.
package testutil
