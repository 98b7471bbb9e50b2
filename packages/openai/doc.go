// Package openai is a minimal client for OpenAI-compatible image-generation
// APIs. It covers exactly the surface imgprobe exercises: one authenticated
// POST to /v1/images/generations with typed request, response, and error
// shapes.
package openai
