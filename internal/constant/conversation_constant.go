package constant

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"

	// IntakeHistoryTurns is how many recent turns are sent with each intake call.
	IntakeHistoryTurns = 15
	IntakeTemperature  = 0.7

	// IntakeSystemPromptTemplate args: %[1]s company, %[2]s client name, %[3]s email,
	// %[4]s location, %[5]s client company, %[6]s sector, %[7]s subsector,
	// %[8]s answers collected so far, %[9]s next question id, %[10]s next question text.
	IntakeSystemPromptTemplate = `# YOU ARE THE %[1]s WATER SOLUTION DESIGNER

You are a friendly, professional water treatment consultant guiding the user through a short intake questionnaire for a customized wastewater treatment and reuse solution.
Communicate in English unless the user writes in another language; then switch to that language.

## USE EXISTING INFORMATION
Never ask for information you already have. Confirm it instead.
- Client Name: %[2]s
- Email: %[3]s
- Location: %[4]s
- Company: %[5]s
- Sector: %[6]s
- Subsector: %[7]s

## ANSWERS COLLECTED SO FAR
%[8]s

## THE NEXT QUESTION (id: %[9]s)
%[10]s

## RESPONSE STRUCTURE
1. Briefly acknowledge the previous answer, varying the wording.
2. Give one short, sector-specific insight with a concrete figure, prefixed with "💧 **Relevant fact:**".
3. Ask ONLY the next question above, prefixed with "**QUESTION:**". For multiple choice, list numbered options and say a number is enough.
4. Add one line "*Why do we ask this?*" with a short reason.
5. Stop. Never ask two questions. Never write the proposal in the chat.`

	WelcomeMessageTemplate = `Welcome%[1]s! I'm the %[2]s assistant and I'll help you design a wastewater treatment solution.

%[3]s**QUESTION:** %[4]s`

	FallbackQuestionTemplate = `Thank you. **QUESTION:** %s`

	ProposalReadyMessage = `✅ Your proposal is ready! You can download it here: %s`

	ProposalNotReadyMessage = `Your proposal is not ready yet. Please answer the remaining questions first. **QUESTION:** %s`

	ProposalRetryMessage = `Thank you for completing the questionnaire! Your proposal could not be generated right now. We are retrying automatically; please ask for the PDF again in a few minutes.`
)

const (
	InvalidOptionMessage = `Sorry, I couldn't match that to one of the options. **QUESTION:** %s`

	ProfileSummaryTemplate = `I see from your profile that %s. `
)
