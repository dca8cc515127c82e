package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashureev/fincoach/internal/domain"
)

// parseFields maps generated text onto the card's fields. It tries a JSON
// object first and falls back to a line-based mapping; fields the text cannot
// supply are taken from fallback. A JSON object without any of the card's
// fields is malformed.
func parseFields(cardType domain.CardType, text string, fallback map[string]string) (map[string]string, error) {
	text = stripFences(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrMalformedResponse)
	}
	if fields, ok := parseJSON(cardType, text, fallback); ok {
		if fields == nil {
			return nil, fmt.Errorf("%w: no card fields in object", domain.ErrMalformedResponse)
		}
		return fields, nil
	}
	return parseLines(cardType, text, fallback), nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if i := strings.Index(text, "\n"); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

// parseJSON reports ok when text holds a JSON object. Fields it lacks come
// from fallback; fields is nil when the object has none of the card's fields.
func parseJSON(cardType domain.CardType, text string, fallback map[string]string) (fields map[string]string, ok bool) {
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, false
	}

	names := cardType.Fields()
	fields = make(map[string]string, len(names))
	found := 0
	for _, name := range names {
		if v, ok := raw[name]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				fields[name] = s
				found++
				continue
			}
		}
		fields[name] = fallback[name]
	}
	if found == 0 {
		return nil, true
	}
	return fields, true
}

// parseLines assigns "field: value" lines by label and the remaining lines in
// field order. A single unlabeled paragraph becomes the first field.
func parseLines(cardType domain.CardType, text string, fallback map[string]string) map[string]string {
	names := cardType.Fields()
	fields := make(map[string]string, len(names))

	var unlabeled []string
	for _, line := range strings.Split(text, "\n") {
		line = stripBullet(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		if name, value, ok := labeled(line, names); ok {
			if _, taken := fields[name]; !taken {
				fields[name] = value
				continue
			}
		}
		unlabeled = append(unlabeled, line)
	}

	for _, name := range names {
		if _, ok := fields[name]; ok {
			continue
		}
		if len(unlabeled) > 0 {
			fields[name] = unlabeled[0]
			unlabeled = unlabeled[1:]
			continue
		}
		fields[name] = fallback[name]
	}
	return fields
}

func labeled(line string, names []string) (string, string, bool) {
	label, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	label = strings.Trim(strings.TrimSpace(label), `*"`)
	value = strings.TrimSpace(value)
	for _, name := range names {
		if strings.EqualFold(label, name) && value != "" {
			return name, value, true
		}
	}
	return "", "", false
}

func stripBullet(line string) string {
	for _, p := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(line[len(p):])
		}
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
