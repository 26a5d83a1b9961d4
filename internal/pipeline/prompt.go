package pipeline

import (
	"strings"

	"clipchat/internal/domain"
)

// RefusalPhrase is the exact reply the model is instructed to give when the
// retrieved context does not contain the answer.
const RefusalPhrase = "Seems like you are asking questions that I can't find any answer for from my training data."

const promptTemplate = `You are the professional AI persona of the speaker from the provided video transcript.
Your task is to answer viewer questions based STRICTLY on the content of the video context provided below.

Instructions:
1. Persona: Speak in the first person ("I", "we") as if you are the creator of the video. Be professional, engaging, and helpful.
2. Knowledge Limit: You can only answer based on the "Context" section below. Do not use outside knowledge.
3. Failure Case: If the answer to the question cannot be found in the context, do not make up an answer. Instead, strictly reply with this exact phrase:
   "{{refusal}}"

Context:
{{context}}

User Question:
{{question}}

Answer:`

// buildPrompt assembles the generation prompt from the retrieved chunks and
// the question, constraining the model to the supplied context.
func buildPrompt(question string, results []domain.SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	prompt := strings.ReplaceAll(promptTemplate, "{{refusal}}", RefusalPhrase)
	prompt = strings.ReplaceAll(prompt, "{{context}}", strings.Join(texts, "\n\n"))
	return strings.ReplaceAll(prompt, "{{question}}", question)
}
