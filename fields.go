package tagtrain

import (
	"fmt"
	"strings"
)

// FieldSeparator joins annotation field names on the command line,
// e.g. "upos-deprel".
const FieldSeparator = "-"

// knownFields are the CoNLL-U annotation columns the dataset builder
// can validate against. FORM and ID are positional and never selected.
var knownFields = map[string]bool{
	"lemma":  true,
	"upos":   true,
	"xpos":   true,
	"feats":  true,
	"head":   true,
	"deprel": true,
	"deps":   true,
	"misc":   true,
}

// ParseFields splits a dash-separated annotation field list and validates
// every element. The raw value is passed through to the dataset builder
// verbatim, so parsing only guards dispatch.
func ParseFields(spec string) ([]string, error) {
	if spec == "" {
		return nil, ErrEmptyFields
	}

	fields := strings.Split(spec, FieldSeparator)
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}

	return fields, nil
}

// ValidateFields checks that every entry names a CoNLL-U annotation column
func ValidateFields(fields []string) error {
	if len(fields) == 0 {
		return ErrEmptyFields
	}

	for _, field := range fields {
		if field == "" {
			return fmt.Errorf("%w: empty element in field list", ErrUnknownField)
		}

		if !knownFields[strings.ToLower(field)] {
			return fmt.Errorf("%w: '%s': must be one of lemma, upos, xpos, feats, head, deprel, deps, misc", ErrUnknownField, field)
		}
	}

	return nil
}

// JoinFields renders a field list back to its command-line form
func JoinFields(fields []string) string {
	return strings.Join(fields, FieldSeparator)
}
