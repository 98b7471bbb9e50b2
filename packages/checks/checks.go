package checks

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/perly6185-lab/imgprobe/packages/imagefmt"
	"github.com/perly6185-lab/imgprobe/packages/openai"
)

// CheckURLFormat requests one image in the url response format and verifies
// a usable URL came back. Transport and API errors are reported as failures,
// never propagated.
func (r *Runner) CheckURLFormat(ctx context.Context) bool {
	r.banner(NameURLFormat)
	r.info("prompt: %s", truncate(r.prompt, 50))

	resp, err := r.client.GenerateImages(ctx, &openai.ImageRequest{
		Model:          ModelOpenAIAlias,
		Prompt:         r.prompt,
		N:              1,
		Size:           defaultSize,
		ResponseFormat: openai.FormatURL,
	})
	if err != nil {
		r.fail("generation request failed: %v", err)
		r.verdict(NameURLFormat, false)
		return false
	}

	r.info("created: %d", resp.Created)
	r.info("images returned: %d", len(resp.Data))

	if len(resp.Data) == 0 {
		r.fail("no images returned")
		r.verdict(NameURLFormat, false)
		return false
	}

	image := resp.Data[0]
	if !image.HasURL() {
		r.fail("url field is empty")
		r.verdict(NameURLFormat, false)
		return false
	}

	url := *image.URL
	r.info("url length: %d chars", len(url))
	if strings.HasPrefix(url, "data:image/") {
		r.pass("url format correct (data URL)")
	} else {
		r.warn("url format: %s", truncate(url, 50))
	}

	r.reportRevisedPrompt(&image)

	r.verdict(NameURLFormat, true)
	return true
}

// CheckB64Format requests one image in the b64_json response format from the
// provider-native model, decodes the payload, and classifies the image
// container by its magic bytes. A decode failure is a warning only; the
// check fails when the field itself is missing or empty.
func (r *Runner) CheckB64Format(ctx context.Context) bool {
	r.banner(NameB64Format)
	r.info("prompt: %s", truncate(r.prompt, 50))

	// n is left unset so the service default applies.
	resp, err := r.client.GenerateImages(ctx, &openai.ImageRequest{
		Model:          ModelProviderNative,
		Prompt:         r.prompt,
		ResponseFormat: openai.FormatB64JSON,
	})
	if err != nil {
		r.fail("generation request failed: %v", err)
		r.verdict(NameB64Format, false)
		return false
	}

	r.info("created: %d", resp.Created)
	r.info("images returned: %d", len(resp.Data))

	if len(resp.Data) == 0 {
		r.fail("no images returned")
		r.verdict(NameB64Format, false)
		return false
	}

	image := resp.Data[0]
	if !image.HasB64JSON() {
		r.fail("b64_json field is empty")
		r.verdict(NameB64Format, false)
		return false
	}

	encoded := *image.B64JSON
	r.info("base64 data length: %d chars", len(encoded))

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		r.warn("base64 decode failed: %v", err)
	} else {
		r.info("decoded size: %d bytes", len(decoded))
		if format := imagefmt.Detect(decoded); format != imagefmt.Unknown {
			r.pass("image format: %s", format)
		} else {
			r.warn("unknown image format: %s", imagefmt.HexPrefix(decoded, 8))
		}
	}

	r.reportRevisedPrompt(&image)

	r.verdict(NameB64Format, true)
	return true
}

// CheckErrorHandling sends an empty prompt and expects the service to reject
// it. The failure IS the success criterion here.
func (r *Runner) CheckErrorHandling(ctx context.Context) bool {
	r.banner(NameErrorHandling)
	r.info("sending empty prompt...")

	_, err := r.client.GenerateImages(ctx, &openai.ImageRequest{
		Model:  ModelOpenAIAlias,
		Prompt: "",
		N:      1,
	})
	if err == nil {
		r.fail("server accepted an empty prompt")
		r.verdict(NameErrorHandling, false)
		return false
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "prompt") || strings.Contains(msg, "empty") || strings.Contains(msg, "required") {
		r.pass("correctly rejected empty prompt: %v", err)
	} else {
		r.warn("received an error but the message is unclear: %v", err)
	}

	r.verdict(NameErrorHandling, true)
	return true
}

// CheckStructure issues a url-format request and validates the response
// shape: created present and positive, data present and non-empty, and every
// element carrying url or b64_json. Presence is checked on the raw wire body
// so an absent field is not mistaken for a zero value. The first violation
// fails the whole check.
func (r *Runner) CheckStructure(ctx context.Context) bool {
	r.banner(NameStructure)
	r.info("prompt: %s", truncate(r.prompt, 50))

	resp, err := r.client.GenerateImages(ctx, &openai.ImageRequest{
		Model:          ModelOpenAIAlias,
		Prompt:         r.prompt,
		N:              1,
		ResponseFormat: openai.FormatURL,
	})
	if err != nil {
		r.fail("generation request failed: %v", err)
		r.verdict(NameStructure, false)
		return false
	}

	created := gjson.GetBytes(resp.Raw, "created")
	if !created.Exists() {
		r.fail("created field is missing")
		r.verdict(NameStructure, false)
		return false
	}
	if resp.Created <= 0 {
		r.fail("created is not a valid timestamp: %d", resp.Created)
		r.verdict(NameStructure, false)
		return false
	}
	r.pass("created field present: %d", resp.Created)
	r.info("time: %s", time.Unix(resp.Created, 0).Format("2006-01-02 15:04:05"))

	if !gjson.GetBytes(resp.Raw, "data").Exists() {
		r.fail("data field is missing")
		r.verdict(NameStructure, false)
		return false
	}
	r.pass("data field present: %d items", len(resp.Data))

	if len(resp.Data) == 0 {
		r.fail("data array is empty")
		r.verdict(NameStructure, false)
		return false
	}
	r.pass("data array non-empty")

	for i := range resp.Data {
		image := &resp.Data[i]
		r.info("image %d:", i+1)

		if image.HasURL() {
			r.pass("  url field present")
		}
		if image.HasB64JSON() {
			r.pass("  b64_json field present")
		}
		if !image.HasURL() && !image.HasB64JSON() {
			r.fail("  both url and b64_json are missing")
			r.verdict(NameStructure, false)
			return false
		}

		if image.RevisedPrompt != nil && *image.RevisedPrompt != "" {
			r.pass("  revised_prompt field present")
		} else {
			r.info("  revised_prompt field empty")
		}
	}

	if err := validateResponseSchema(resp.Raw); err != nil {
		r.fail("schema validation: %v", err)
		r.verdict(NameStructure, false)
		return false
	}
	r.pass("response matches the images schema")

	r.verdict(NameStructure, true)
	return true
}

func (r *Runner) reportRevisedPrompt(image *openai.ImageData) {
	if image.RevisedPrompt != nil && *image.RevisedPrompt != "" {
		r.info("revised prompt: %s", truncate(*image.RevisedPrompt, 100))
	} else {
		r.info("no revised prompt")
	}
}
