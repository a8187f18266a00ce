package tutor

import "fmt"

// ChapterAll is the sentinel chapter meaning whole-book scope.
const ChapterAll = "All"

// StartMessage is the synthetic first user turn that elicits the model's
// opening question. It is never shown in the transcript.
const StartMessage = "Start the conversation."

const (
	startFailureText = "Sorry, I couldn't start the conversation. Please try again."
	sendFailureText  = "There was an error. Let's try that again."
)

// goalCoachingInstruction parameterizes the Socratic goal-coaching template.
func goalCoachingInstruction(bookTitle, goal string) string {
	return fmt.Sprintf(`You are an expert coach helping a user apply the principles of the book %q to their personal goal: %q. Your role is to foster deep understanding through Socratic questioning.
1. Start with a broad question connecting the book's main theme to the user's goal.
2. Based on the user's response, assess their level of understanding (surface-level or deep).
3. If their understanding is surface-level, ask clarifying questions or for specific examples from the book.
4. If their understanding is deep, challenge them with situational or actionable questions. For example, 'Imagine you face [common obstacle related to goal]. How would you apply the principle of [book concept] to overcome it?'
5. Keep your questions concise and focused on one concept at a time. Guide the user, don't just lecture them. Start the conversation now with your first question.`, bookTitle, goal)
}

// chapterFocusedInstruction parameterizes the chapter-discussion template.
// chapter may be ChapterAll for whole-book scope.
func chapterFocusedInstruction(bookTitle, chapter string) string {
	context := fmt.Sprintf("the entire book %q", bookTitle)
	if chapter != ChapterAll {
		context = fmt.Sprintf("the chapter %q from the book %q", chapter, bookTitle)
	}

	return fmt.Sprintf(`You are a helpful AI assistant for deep book discussions. Focus on %s.

Key guidelines:
- Ask thoughtful questions to deepen understanding
- Be conversational and encouraging
- Always end your response with exactly ONE clear question
- Keep responses concise but meaningful
- Help users connect book concepts to real life

Start by asking an engaging question about the book/chapter.`, context)
}
