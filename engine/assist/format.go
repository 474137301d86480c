package assist

import (
	"fmt"
	"strings"

	"github.com/aibroker/support-assistant/engine/semantic"
)

const escalationNotice = "Если эти ответы не решают вашу проблему, ожидайте ответа оператора."

// formatResults renders the numbered answer list in hit order. The
// store already returns hits sorted descending by score; ties keep the
// store's order.
func formatResults(originalQuestion string, hits []semantic.SearchHit) string {
	var b strings.Builder
	b.WriteString("Автоматический помощник нашел следующие ответы:\n")
	fmt.Fprintf(&b, "Ваш вопрос: %q\n", originalQuestion)
	b.WriteString("\n---\n\n")

	for i, hit := range hits {
		fmt.Fprintf(&b, "%d. %s\n", i+1, hit.Question)
		fmt.Fprintf(&b, "   Ответ: %s\n", hit.Answer)
		fmt.Fprintf(&b, "   Категория: %s\n", hit.Category)
		fmt.Fprintf(&b, "   Релевантность: %.2f\n\n", hit.Score)
	}

	b.WriteString("---\n\n")
	b.WriteString(escalationNotice)
	return b.String()
}

// formatNoResults renders the fallback when the knowledge base has no
// neighbors for the question.
func formatNoResults(originalQuestion string) string {
	return fmt.Sprintf("Автоматический помощник\n\n"+
		"Ваш вопрос: %q\n\n"+
		"К сожалению, я не нашел подходящего ответа в базе знаний.\n\n"+
		"Ожидайте ответа оператора, который поможет решить вашу проблему.",
		originalQuestion)
}
