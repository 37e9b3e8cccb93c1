package assistant

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/research-assistant/internal/core/domain"
)

const (
	summarySystemPrompt = "You are an expert document analyst. Create clear, concise summaries that capture the essence of academic and professional documents."

	answerSystemPrompt = "You are a precise document analyst. Always ground your responses in the provided text and include specific citations."

	challengeSystemPrompt = "You are an expert educator who creates challenging comprehension questions that test critical thinking and document understanding."

	evaluationSystemPrompt = "You are an expert evaluator who provides fair, constructive feedback on comprehension answers based on document evidence."

	passageSystemPrompt = "You are an expert at identifying relevant text passages for question answering."
)

func buildSummaryPrompt(documentText string) string {
	return fmt.Sprintf(`Please provide a concise summary of the following document in no more than 150 words.
Focus on the main themes, key arguments, and important findings.
Make the summary informative and well-structured.

Document content:
%s`, documentText)
}

func buildAnswerPrompt(question, documentText string, history []domain.QAEntry) string {
	var context strings.Builder
	if len(history) > 0 {
		context.WriteString("Previous conversation:\n")
		for _, qa := range history {
			fmt.Fprintf(&context, "Q: %s\nA: %s\n\n", qa.Question, qa.Answer)
		}
	}

	return fmt.Sprintf(`Answer the user's question based ONLY on the provided document content.

Important guidelines:
1. Base your answer strictly on the document content provided
2. Do not add information from your general knowledge
3. If the answer cannot be found in the document, clearly state this
4. Provide specific references to support your answer
5. Be thorough but concise

%s
Document content:
%s

User question: %s

Respond with a JSON object of the following structure:
{
    "answer": "Your detailed answer based on the document",
    "citation": "Specific reference to the document section/paragraph that supports this answer",
    "confidence": "high/medium/low based on how directly the document addresses the question"
}`, context.String(), documentText, question)
}

func buildChallengePrompt(documentText string, count int) string {
	return fmt.Sprintf(`Based on the provided document, generate exactly %d challenging questions that test deep comprehension and logical reasoning.

Question requirements:
1. Questions should require analysis, inference, or synthesis of information
2. Avoid simple factual recall questions
3. Focus on relationships, implications, and deeper understanding
4. Each question should have a clear, document-based answer
5. Questions should cover different aspects/sections of the document

Document content:
%s

Respond with a JSON object of the following structure:
{
    "questions": [
        {
            "question": "The challenging question text",
            "expected_answer": "Detailed expected answer based on the document",
            "reasoning_required": "Brief description of the type of reasoning needed"
        }
    ]
}`, count, documentText)
}

func buildEvaluationPrompt(question, userAnswer, expectedAnswer, documentText string) string {
	return fmt.Sprintf(`Evaluate the user's answer to the question based on the document content.

Question: %s

User's Answer: %s

Expected Answer: %s

Document content (for reference):
%s

Evaluation criteria:
1. Accuracy: How well does the answer align with document content?
2. Completeness: Does it address all aspects of the question?
3. Understanding: Does it demonstrate comprehension of key concepts?
4. Evidence: Is the answer supported by document content?

Respond with a JSON object:
{
    "score": 85,
    "feedback": "Detailed feedback explaining the evaluation",
    "strengths": "What the user did well",
    "areas_for_improvement": "What could be better",
    "citation": "Document reference that supports the correct answer"
}

Score should be 0-100, where:
- 90-100: Excellent, comprehensive understanding
- 80-89: Good understanding with minor gaps
- 70-79: Adequate understanding but missing key points
- 60-69: Basic understanding but significant gaps
- Below 60: Poor understanding or major inaccuracies`, question, userAnswer, expectedAnswer, documentText)
}

func buildPassagePrompt(question string, chunks []string, count int) (string, error) {
	indexed, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal chunks: %w", err)
	}

	return fmt.Sprintf(`Given the following question and document chunks, identify the %d most relevant chunks that would help answer the question.

Question: %s

Document chunks:
%s

Respond with a JSON object:
{
    "relevant_chunk_indices": [0, 5, 12]
}

Return the indices of the most relevant chunks in order of relevance.`, count, question, indexed), nil
}
