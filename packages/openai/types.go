package openai

import "fmt"

// Response format selectors accepted by the images endpoint.
const (
	FormatURL     = "url"
	FormatB64JSON = "b64_json"
)

// ImageRequest is the request body for POST /v1/images/generations.
type ImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// ImageData is one generated image. URL and B64JSON are pointers so an
// absent field can be told apart from an empty one.
type ImageData struct {
	URL           *string `json:"url,omitempty"`
	B64JSON       *string `json:"b64_json,omitempty"`
	RevisedPrompt *string `json:"revised_prompt,omitempty"`
}

// HasURL reports whether the url field is present and non-empty.
func (d *ImageData) HasURL() bool {
	return d.URL != nil && *d.URL != ""
}

// HasB64JSON reports whether the b64_json field is present and non-empty.
func (d *ImageData) HasB64JSON() bool {
	return d.B64JSON != nil && *d.B64JSON != ""
}

// ImageResponse is the response body of a generation call. Raw keeps the
// undecoded body so callers can check field presence on the wire format.
type ImageResponse struct {
	Created int64       `json:"created"`
	Data    []ImageData `json:"data"`

	Raw []byte `json:"-"`
}

// errorEnvelope matches the OpenAI-style error body {"error": {...}}.
type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// APIError is a structured error returned by the service for non-2xx
// responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`
	Code       string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("api error (status %d, %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// DecodeError reports a 2xx response whose body did not match the expected
// schema.
type DecodeError struct {
	Err  error
	Body []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response body: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
