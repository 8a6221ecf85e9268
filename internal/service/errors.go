package service

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrForbidden            = errors.New("conversation belongs to another user")
	ErrProposalNotReady     = errors.New("proposal not ready yet, try again later")
	ErrQuestionnaireOpen    = errors.New("questionnaire is not complete")
)
