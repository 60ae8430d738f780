// prompts.go - OCR prompts

package ocr

// GetPureOCRPrompt asks for the printed text only; classification happens locally
func GetPureOCRPrompt() string {
	return `You are an OCR engine reading a scanned identity document (PAN card, Aadhaar card, passport or other ID card).

Return every piece of visible text exactly as printed:
- Read from top to bottom, left to right.
- Put each printed line or paragraph on its own line.
- Keep the original capitalization, digits, spacing inside numbers (e.g. "1234 5678 9012") and date separators.
- Include labels such as "Year of Birth", "DOB", "Male"/"Female", headings and footers.
- Do NOT translate, correct, summarize, or guess unreadable characters.

Respond with JSON: {"status": "success", "raw_document_text": "<all text>"}.
If no text is legible, return an empty raw_document_text.`
}

// GetPlainTextOCRPrompt is the schema-less fallback prompt
func GetPlainTextOCRPrompt() string {
	return `Extract ALL visible text from this identity document.
Read everything from top to bottom, left to right, one printed line per line.
Keep capitalization, digits and separators exactly as printed.
Return ONLY the extracted text, nothing else.`
}
