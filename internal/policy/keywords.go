package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keywords — неизменяемая конфигурация ключевых слов политики.
// Загружается один раз при старте процесса; никакого runtime-редактирования.
// Списки принадлежат ИБ/комплаенс-команде, а не пользователям.
type Keywords struct {
	// Фразы атак на LLM (prompt injection, social engineering)
	AttackPhrases []string `yaml:"attack_phrases"`

	// Семейства комплаенс-ключей. GDPR и HIPAA — major violation,
	// Financial — только пункт чеклиста.
	GDPR      []string `yaml:"gdpr"`
	HIPAA     []string `yaml:"hipaa"`
	Financial []string `yaml:"financial"`
}

// Default возвращает встроенный набор ключей.
// Совпадение ищется по подстроке без границ слова: ложные срабатывания
// («sudo» внутри «pseudonymous») принимаются осознанно — политика
// предпочитает false positive пропуску атаки.
func Default() Keywords {
	return Keywords{
		AttackPhrases: []string{
			"ignore previous instructions",
			"override safeguards",
			"as a developer",
			"print the system prompt",
			"disregard rules",
			"sudo",
			"root access",
			"bypass security",
			"inject",
		},
		GDPR: []string{
			"gdpr",
			"general data protection regulation",
			"eu personal data",
		},
		HIPAA: []string{
			"hipaa",
			"medical record",
			"phi",
			"patient data",
		},
		Financial: []string{
			"pci",
			"credit card",
			"ssn",
			"social security",
			"financial",
		},
	}
}

// Load читает YAML-файл поверх дефолтов. Пустой путь — чистые дефолты.
// Секция, отсутствующая в файле, остается дефолтной: так ИБ-команда
// может переопределить только attack_phrases, не трогая остальное.
func Load(path string) (Keywords, error) {
	kw := Default()
	if path == "" {
		return kw, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return kw, fmt.Errorf("policy: read keywords file: %w", err)
	}

	var override Keywords
	if err := yaml.Unmarshal(data, &override); err != nil {
		return kw, fmt.Errorf("policy: parse keywords file: %w", err)
	}

	if len(override.AttackPhrases) > 0 {
		kw.AttackPhrases = override.AttackPhrases
	}
	if len(override.GDPR) > 0 {
		kw.GDPR = override.GDPR
	}
	if len(override.HIPAA) > 0 {
		kw.HIPAA = override.HIPAA
	}
	if len(override.Financial) > 0 {
		kw.Financial = override.Financial
	}
	return kw, nil
}
