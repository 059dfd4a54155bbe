package chat

import "regexp"

const redacted = "***REDACTED***"

var secretPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	// query parameters such as ?key=... in request URLs quoted by SDK errors
	{regexp.MustCompile(`(?i)([?&](?:key|api_key|apikey|access_token)=)[^&\s"']+`), "${1}" + redacted},
	// Google API keys
	{regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{20,}`), redacted},
	// OpenAI, Anthropic and OpenRouter style keys
	{regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{16,}`), redacted},
	// bearer tokens
	{regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._\-]{8,}`), "${1}" + redacted},
}

// RedactSecrets masks API keys and tokens in text that is about to be
// stored or shown, such as provider error messages.
func RedactSecrets(text string) string {
	for _, p := range secretPatterns {
		text = p.re.ReplaceAllString(text, p.repl)
	}
	return text
}
