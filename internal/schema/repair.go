package schema

import "strings"

// RepairStructure fixes rows that carry more comma-separated fields than the
// header row, which happens when a free-text column such as a postal address
// holds unescaped commas. The overflow is assumed to belong to the last
// column: the first n-1 fields are kept verbatim and the rest are joined back
// into a single quoted field. The header row is never modified and no row is
// dropped.
func RepairStructure(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return raw
	}
	header := lines[0]
	expected := len(splitFields(header))

	out := make([]string, 0, len(lines))
	out = append(out, header)
	for _, line := range lines[1:] {
		cols := splitFields(line)
		if len(cols) <= expected {
			out = append(out, line)
			continue
		}
		fixed := make([]string, 0, expected)
		fixed = append(fixed, cols[:expected-1]...)
		fixed = append(fixed, quoteField(strings.TrimSpace(strings.Join(cols[expected-1:], ","))))
		out = append(out, strings.Join(fixed, ","))
	}
	return strings.Join(out, "\n")
}

// splitFields splits a line on commas that sit outside double quotes. Quote
// characters are kept so fields can be re-joined verbatim.
func splitFields(line string) []string {
	var fields []string
	inQuotes := false
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				fields = append(fields, line[start:i])
				start = i + 1
			}
		}
	}
	return append(fields, line[start:])
}

func quoteField(s string) string {
	if s == "" {
		return s
	}
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
