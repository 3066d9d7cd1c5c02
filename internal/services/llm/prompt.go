package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"finguide/internal/models"
)

const insightsSystemPrompt = `You are a personal finance assistant. ` +
	`Analyze the user's monthly transaction summary and respond with only ` +
	`minified JSON in one line, no comments, no markdown. ` +
	`Output schema: {"commentary":[string],"tips":[string]}. ` +
	`commentary holds 2-4 observations about this month's spending; ` +
	`tips holds 2-4 concrete, actionable suggestions.`

// insightsPrompt renders the transaction aggregate as the user turn
func insightsPrompt(data models.TransactionData) string {
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte("{}")
	}
	return fmt.Sprintf("Monthly transaction summary:\n%s", payload)
}

// flattenMessages renders a chat history as a single prompt for completion
// style APIs that take no message list.
func flattenMessages(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	b.WriteString("assistant:")
	return b.String()
}
