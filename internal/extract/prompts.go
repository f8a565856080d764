package extract

import (
	"strings"

	"github.com/avolkov/finledger/internal/domain"
)

// The prompts mandate an exact JSON shape. The engine never trusts the
// model's framing of its own output — the repair chain enforces the contract
// the prompt only requests.

func categoryList() string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// StatementPrompt is the system prompt for document-statement extraction.
func StatementPrompt() string {
	return "You are a financial statement parser. The user message contains the raw text of a bank statement.\n\n" +
		"Task:\n" +
		"- Extract ALL accounts and ALL transactions found in the text.\n" +
		"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
		"- Output a single JSON object with this exact shape:\n\n" +
		"{\n" +
		"  \"accounts\": [{ \"name\": string, \"balance\": number, \"currency\": string }],\n" +
		"  \"transactions\": [{ \"date\": \"YYYY-MM-DD\", \"description\": string, \"amount\": number, \"category\": string }]\n" +
		"}\n\n" +
		"Field rules:\n" +
		"- \"date\": ISO format YYYY-MM-DD, always.\n" +
		"- \"amount\": number; NEGATIVE for money going out, positive for money coming in.\n" +
		"- \"category\": EXACTLY one of: " + categoryList() + ".\n" +
		"- \"accounts\" may be an empty array if no account header is present.\n\n" +
		"Return ONLY valid raw JSON.\n" +
		"Do NOT wrap the response in code fences.\n" +
		"Do NOT use ```json or any Markdown.\n" +
		"Output must begin with \"{\" and end with \"}\".\n"
}

// SpreadsheetPrompt is the system prompt for delimited-text imports. Same
// output contract; the accounts array is usually empty.
func SpreadsheetPrompt() string {
	return "You are a financial data categorizer. The user message contains rows from a delimited-text export, one transaction per line.\n\n" +
		"Task:\n" +
		"- Convert EVERY row into a transaction object and classify it.\n" +
		"- Output STRICT JSON only, a single object with this exact shape:\n\n" +
		"{\n" +
		"  \"accounts\": [],\n" +
		"  \"transactions\": [{ \"date\": \"YYYY-MM-DD\", \"description\": string, \"amount\": number, \"category\": string }]\n" +
		"}\n\n" +
		"Field rules:\n" +
		"- \"date\": ISO format YYYY-MM-DD, always.\n" +
		"- \"amount\": number; NEGATIVE for money going out, positive for money coming in.\n" +
		"- \"category\": EXACTLY one of: " + categoryList() + ".\n\n" +
		"Return ONLY valid raw JSON.\n" +
		"Do NOT wrap the response in code fences or Markdown.\n" +
		"Output must begin with \"{\" and end with \"}\".\n"
}
