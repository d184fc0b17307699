package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Canonical job type labels.
const (
	JobTypeFullTime   = "Tempo Integral"
	JobTypePartTime   = "Meio Período"
	JobTypeFreelance  = "Freelance"
	JobTypeContract   = "Contrato"
	JobTypeInternship = "Estágio"
	JobTypeTemporary  = "Temporário"

	DefaultJobType = JobTypeFullTime
)

type jobTypeRule struct {
	label string
	re    *regexp.Regexp
}

// jobTypeRules are tried in order against folded text.
var jobTypeRules = []jobTypeRule{
	{JobTypeFullTime, keywordRe("tempo integral", "full time", "full-time")},
	{JobTypePartTime, keywordRe("meio periodo", "part time", "part-time")},
	{JobTypeFreelance, keywordRe("freelance", "freelancer")},
	{JobTypeContract, keywordRe("contrato", "contract")},
	{JobTypeInternship, keywordRe("estagio", "estagiario", "internship", "intern")},
}

func keywordRe(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// JobType maps keywords found in text to a canonical label, DefaultJobType
// when nothing matches.
func JobType(text string) string {
	folded := Fold(text)
	for _, r := range jobTypeRules {
		if r.re.MatchString(folded) {
			return r.label
		}
	}
	return DefaultJobType
}

var jobTypeNames = map[string]string{
	"full time":  JobTypeFullTime,
	"full-time":  JobTypeFullTime,
	"part time":  JobTypePartTime,
	"part-time":  JobTypePartTime,
	"contract":   JobTypeContract,
	"contractor": JobTypeContract,
	"freelance":  JobTypeFreelance,
	"temporary":  JobTypeTemporary,
	"internship": JobTypeInternship,
	"intern":     JobTypeInternship,
}

// NormalizeJobType maps a provider's job type value to a canonical label.
// Unknown values are returned with their first letter upper-cased.
func NormalizeJobType(value string) string {
	v := strings.TrimSpace(value)
	if label, ok := jobTypeNames[strings.ToLower(v)]; ok {
		return label
	}
	return upperFirst(v)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Employment types, schema.org style.
const (
	EmploymentFullTime   = "FULL_TIME"
	EmploymentPartTime   = "PART_TIME"
	EmploymentContractor = "CONTRACTOR"
	EmploymentTemporary  = "TEMPORARY"
	EmploymentIntern     = "INTERN"
)

var employmentTypes = map[string]string{
	"full time":      EmploymentFullTime,
	"full-time":      EmploymentFullTime,
	"tempo integral": EmploymentFullTime,
	"part time":      EmploymentPartTime,
	"part-time":      EmploymentPartTime,
	"meio periodo":   EmploymentPartTime,
	"contract":       EmploymentContractor,
	"contractor":     EmploymentContractor,
	"freelance":      EmploymentContractor,
	"temporary":      EmploymentTemporary,
	"temporario":     EmploymentTemporary,
	"internship":     EmploymentIntern,
	"estagio":        EmploymentIntern,
}

// EmploymentType maps a job type value to an employment type, FULL_TIME when
// unknown.
func EmploymentType(value string) string {
	if t, ok := employmentTypes[Fold(strings.TrimSpace(value))]; ok {
		return t
	}
	return EmploymentFullTime
}
