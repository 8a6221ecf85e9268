package intent

import (
	"strings"
	"unicode"
)

type Kind string

const (
	KindAnswer          Kind = "answer"
	KindDocumentRequest Kind = "document_request"
)

// documentPhrases are matched against the normalized message. The list is a
// heuristic; a miss only means the message is treated as a regular answer.
var documentPhrases = []string{
	"download pdf",
	"get pdf",
	"send pdf",
	"descargar pdf",
	"obtener pdf",
	"quiero el pdf",
	"quiero mi pdf",
	"dame el pdf",
	"dame mi pdf",
}

// documentWords only count as a request when they appear as whole words.
var documentWords = map[string]struct{}{
	"pdf":       {},
	"download":  {},
	"descargar": {},
	"descarga":  {},
}

// documentNouns name the document but only count next to a request verb,
// so an answer like "size the proposal for growth" stays an answer.
var documentNouns = map[string]struct{}{
	"proposal":  {},
	"propuesta": {},
}

var requestVerbs = map[string]struct{}{
	"send":      {},
	"get":       {},
	"give":      {},
	"download":  {},
	"see":       {},
	"view":      {},
	"show":      {},
	"email":     {},
	"dame":      {},
	"envía":     {},
	"envia":     {},
	"envíame":   {},
	"enviame":   {},
	"enviar":    {},
	"manda":     {},
	"mándame":   {},
	"mandame":   {},
	"descargar": {},
	"ver":       {},
	"obtener":   {},
	"muéstrame": {},
	"muestrame": {},
}

// determiners may sit between the verb and the noun.
var determiners = map[string]struct{}{
	"the": {}, "my": {}, "our": {}, "me": {}, "us": {}, "final": {},
	"el": {}, "la": {}, "mi": {}, "nuestra": {},
}

// Classify decides whether a free-text message asks for the proposal document.
func Classify(message string) Kind {
	normalized := normalize(message)
	if normalized == "" {
		return KindAnswer
	}

	for _, phrase := range documentPhrases {
		if strings.Contains(normalized, phrase) {
			return KindDocumentRequest
		}
	}

	words := strings.Fields(normalized)
	for i, word := range words {
		if _, ok := documentWords[word]; ok {
			return KindDocumentRequest
		}
		if _, ok := documentNouns[word]; ok && requestedAt(words, i) {
			return KindDocumentRequest
		}
	}

	return KindAnswer
}

func IsDocumentRequest(message string) bool {
	return Classify(message) == KindDocumentRequest
}

// requestedAt reports whether the noun at i is the object of a request verb,
// as in "send me the proposal" or "where is my proposal".
func requestedAt(words []string, i int) bool {
	j := i - 1
	for j >= 0 {
		if _, ok := determiners[words[j]]; !ok {
			break
		}
		j--
	}
	if j < 0 {
		return false
	}
	if _, ok := requestVerbs[words[j]]; ok {
		return true
	}
	switch words[j] {
	case "is", "está", "esta":
		return j > 0 && (words[j-1] == "where" || words[j-1] == "dónde" || words[j-1] == "donde")
	}
	return false
}

// normalize lowercases and turns punctuation into spaces so "PDF?" matches "pdf".
func normalize(message string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, message)
	return strings.Join(strings.Fields(mapped), " ")
}
