package ocr

import "strings"

// transcriptionPrompt asks a vision model for a verbatim transcript
const transcriptionPrompt = `Transcribe all text visible in this image exactly as written.
Preserve line breaks and reading order. Do not summarize, translate or add commentary.
If the image contains no readable text, respond with an empty message.`

// cleanTranscript strips the markdown fences vision models sometimes wrap output in
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Drop a language tag on the opening fence
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], " \t") {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
