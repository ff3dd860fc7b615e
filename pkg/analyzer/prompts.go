package analyzer

import "fmt"

const insightSystemPrompt = `You are an expert at analyzing user responses and extracting insights.
Your job is to:
1. Create a short, friendly natural-language summary (1-2 sentences)
2. Extract 2-3 key phrases that capture the essence of the response

Return your response as JSON with this structure:
{"summary": "your summary here", "keywords": ["keyword1", "keyword2", "keyword3"]}`

const traitSystemPrompt = `You are an expert psychologist analyzing user responses for personality traits.
Your job is to:
1. Identify 2-3 relevant personality traits shown in the answer
2. Score each trait between -1 (strongly opposite) and 1 (strongly present)
3. Give a one-sentence reason for each score

Return your response as JSON with this structure:
{"traits": [{"name": "trait name", "score": 0.5, "reason": "why"}]}`

func userPrompt(question, answer string) string {
	return fmt.Sprintf("Question: %s\n\nAnswer: %s\n\nAnalyze this Q&A pair.", question, answer)
}
