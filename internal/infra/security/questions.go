package security

import "strings"

// SecurityQuestions is the canonical list users choose from. Questions are
// deliberately non-leading: answers should not be discoverable from public
// profiles.
var SecurityQuestions = []string{
	"What was the name of your first stuffed animal?",
	"What was your childhood nickname at home?",
	"What was the model of your first mobile phone?",
	"What is a memorable place only you would know (do not use your hometown)?",
	"What was your least favorite subject in school?",
	"What is the name of a teacher who impacted you (not your favorite)?",
	"What is the title of a book you strongly disliked?",
}

// ValidSecurityQuestion reports whether q is one of the canonical questions.
func ValidSecurityQuestion(q string) bool {
	for _, known := range SecurityQuestions {
		if known == q {
			return true
		}
	}
	return false
}

// trivialAnswers are rejected outright during setup.
var trivialAnswers = map[string]struct{}{
	"password": {},
	"qwerty":   {},
	"123456":   {},
	"abcdef":   {},
	"iloveyou": {},
	"unknown":  {},
	"none":     {},
	"n/a":      {},
}

// NormalizeAnswer canonicalizes a security answer before hashing or
// comparison: trim, lowercase, and collapse internal whitespace so
// "Mr.  Whiskers " and "mr. whiskers" match.
func NormalizeAnswer(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	return strings.Join(fields, " ")
}

// AnswerViolations validates a candidate answer during setup, returning all
// problems at once. The identifying attributes (username, email local-part)
// must not appear in the answer.
func AnswerViolations(answer string, minLen int, attributes ...string) []string {
	normalized := NormalizeAnswer(answer)

	var problems []string
	if len([]rune(normalized)) < minLen {
		problems = append(problems, "answer is too short")
		return problems
	}

	if _, found := trivialAnswers[normalized]; found {
		problems = append(problems, "answer is too common; choose something more unique")
	}

	distinct := map[rune]struct{}{}
	for _, r := range normalized {
		distinct[r] = struct{}{}
	}
	if len(distinct) <= 2 {
		problems = append(problems, "answer appears too simple; add more variety")
	}

	for _, attr := range attributes {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr != "" && strings.Contains(normalized, attr) {
			problems = append(problems, "answer should not contain your username or email")
			break
		}
	}

	return problems
}
