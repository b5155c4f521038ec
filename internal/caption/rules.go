// Package caption cleans up server caption text before it reaches the
// status display.
//
// A rules file holds one rewrite per line:
//
//	# comment
//	AI says: =>                 literal, case-insensitive, replace every match
//	s/\s*\[laughs\]\s*/ /g      sed-style regex with optional i, g, m, s flags
//
// Rules are applied in file order and the whole set is repeated until the
// text stops changing or the iteration limit is reached.
package caption

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

const ellipsis = "…"

type rewrite interface {
	rewrite(input string) (output string, changed bool)
}

// Engine applies caption rewrite rules and the display length limit.
type Engine struct {
	rules    []rewrite
	limit    int
	maxRunes int
}

// Options configures an Engine.
type Options struct {
	// RulesPath is the rules file. Empty or missing means no rules.
	RulesPath string
	// IterationLimit bounds repeated passes over the rule set.
	IterationLimit int
	// MaxRunes truncates long captions; zero disables truncation.
	MaxRunes int
}

// Load reads and compiles the rules file named in opts.
func Load(opts Options) (*Engine, error) {
	e := &Engine{limit: opts.IterationLimit, maxRunes: opts.MaxRunes}
	if e.limit <= 0 {
		e.limit = 30
	}

	if strings.TrimSpace(opts.RulesPath) == "" {
		return e, nil
	}

	contents, err := os.ReadFile(opts.RulesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return e, nil
		}
		return nil, fmt.Errorf("failed to read caption rules %q: %w", opts.RulesPath, err)
	}

	rules, err := parse(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse caption rules %q: %w", opts.RulesPath, err)
	}
	e.rules = rules
	return e, nil
}

// parse compiles rules from text.
func parse(contents string) ([]rewrite, error) {
	var rules []rewrite
	for index, raw := range strings.Split(contents, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var (
			rule rewrite
			err  error
		)
		switch {
		case isRegexRule(line):
			rule, err = parseRegexRule(line)
		case strings.Contains(line, "=>"):
			rule, err = parseLiteralRule(line)
		default:
			err = errors.New("unsupported rule format")
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", index+1, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Apply rewrites text until it is stable, collapses whitespace and trims it
// to the display limit. It fails only if the rules never converge.
func (e *Engine) Apply(text string) (string, error) {
	result := text
	stable := len(e.rules) == 0
	for i := 0; i < e.limit && !stable; i++ {
		stable = true
		for _, rule := range e.rules {
			if next, changed := rule.rewrite(result); changed {
				result = next
				stable = false
			}
		}
	}
	if !stable {
		return text, fmt.Errorf("caption rules did not settle after %d passes", e.limit)
	}

	result = strings.Join(strings.Fields(result), " ")
	if e.maxRunes > 0 && utf8.RuneCountInString(result) > e.maxRunes {
		runes := []rune(result)
		result = strings.TrimSpace(string(runes[:e.maxRunes-1])) + ellipsis
	}
	return result, nil
}

type literalRule struct {
	re          *regexp.Regexp
	replacement string
}

func parseLiteralRule(line string) (rewrite, error) {
	from, to, _ := strings.Cut(line, "=>")
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, errors.New("literal rule source cannot be empty")
	}
	return literalRule{
		re:          regexp.MustCompile("(?i)" + regexp.QuoteMeta(from)),
		replacement: strings.TrimSpace(to),
	}, nil
}

func (r literalRule) rewrite(input string) (string, bool) {
	output := r.re.ReplaceAllLiteralString(input, r.replacement)
	return output, output != input
}

type regexRule struct {
	re          *regexp.Regexp
	replacement string
	global      bool
}

func isRegexRule(line string) bool {
	return len(line) > 1 && line[0] == 's' && !isWordOrSpace(line[1])
}

func parseRegexRule(line string) (rewrite, error) {
	delim := line[1]
	parts, rest, err := splitDelimited(line[2:], delim, 2)
	if err != nil {
		return nil, err
	}

	var global bool
	flags := "i"
	for _, flag := range strings.TrimSpace(rest) {
		switch flag {
		case 'g':
			global = true
		case 'i':
		case 'm', 's':
			flags += string(flag)
		default:
			return nil, fmt.Errorf("unsupported regex flag %q", flag)
		}
	}

	re, err := regexp.Compile("(?" + flags + ")" + parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}
	return regexRule{re: re, replacement: parts[1], global: global}, nil
}

func (r regexRule) rewrite(input string) (string, bool) {
	if r.global {
		output := r.re.ReplaceAllString(input, r.replacement)
		return output, output != input
	}

	loc := r.re.FindStringSubmatchIndex(input)
	if loc == nil {
		return input, false
	}
	expanded := r.re.ExpandString(nil, r.replacement, input, loc)
	output := input[:loc[0]] + string(expanded) + input[loc[1]:]
	return output, output != input
}

// splitDelimited reads n delimiter-terminated fields from s. Backslash
// escapes are kept so the regexp engine sees them.
func splitDelimited(s string, delim byte, n int) ([]string, string, error) {
	fields := make([]string, 0, n)
	var field strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			if c != delim {
				field.WriteByte('\\')
			}
			field.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == delim:
			fields = append(fields, field.String())
			field.Reset()
			if len(fields) == n {
				return fields, s[i+1:], nil
			}
		default:
			field.WriteByte(c)
		}
	}
	return nil, "", errors.New("unterminated expression")
}

func isWordOrSpace(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == ' ' || c == '\t'
}
