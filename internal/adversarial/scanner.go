package adversarial

import (
	"regexp"
	"strings"

	"github.com/xela07ax/ai-governance-portal/internal/policy"
)

// specialChars ловит управляющие символы, типичные для обфусцированных
// инъекций: #, обратный слэш, кавычки, фигурные скобки, доллар.
// Порог — три и более вхождения в любом месте строки.
var specialChars = regexp.MustCompile(`[#\\"'{}$]`)

const indicatorSpecialChars = "Excessive special characters"

// Scanner — чистый детектор враждебного контента в свободном тексте.
// Детерминирован, без I/O. Совпадение фраз — по подстроке, без границ
// слова: «sudo» сработает и внутри «pseudonymous», это принятая цена
// за отсутствие пропусков.
type Scanner struct {
	phrases []string
}

// Analysis — вердикт сканера. Indicators пуст тогда и только тогда,
// когда Flagged == false.
type Analysis struct {
	Flagged    bool
	Indicators []string
}

func NewScanner(kw policy.Keywords) *Scanner {
	return &Scanner{phrases: kw.AttackPhrases}
}

// Scan проверяет текст на фразы атак (по нижнему регистру) и на
// концентрацию спецсимволов (по исходному регистру).
func (s *Scanner) Scan(text string) Analysis {
	if strings.TrimSpace(text) == "" {
		return Analysis{}
	}

	lowered := strings.ToLower(text)

	var indicators []string
	for _, phrase := range s.phrases {
		if strings.Contains(lowered, phrase) {
			indicators = append(indicators, phrase)
		}
	}

	if len(specialChars.FindAllString(text, -1)) >= 3 {
		indicators = append(indicators, indicatorSpecialChars)
	}

	return Analysis{
		Flagged:    len(indicators) > 0,
		Indicators: indicators,
	}
}
