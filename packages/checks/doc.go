// Package checks implements the imgprobe smoke-test suite: four scripted
// request/response checks against an OpenAI-compatible image-generation API.
// Checks never panic or propagate errors across their boundary; each one
// yields a single named boolean result and prints its own diagnostics.
package checks
