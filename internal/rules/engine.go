package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const defaultIterationLimit = 30

type rule interface {
	apply(input string) (output string, changed bool)
}

// Engine rewrites transcribed text with user-defined substitutions. Rules
// come from a plain text file, one per line: either a literal mapping
// "from => to" or a sed-style expression "s/pattern/replacement/flags".
// The zero-value file (missing or empty) yields a pass-through engine.
type Engine struct {
	rules          []rule
	iterationLimit int
}

// NewEngine loads and compiles the rules file. A missing file is not an
// error; dictation works without substitutions.
func NewEngine(path string, iterationLimit int) (*Engine, error) {
	if iterationLimit <= 0 {
		iterationLimit = defaultIterationLimit
	}
	if strings.TrimSpace(path) == "" {
		return &Engine{iterationLimit: iterationLimit}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Engine{iterationLimit: iterationLimit}, nil
		}
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	compiled, err := compileRules(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
	}

	return &Engine{rules: compiled, iterationLimit: iterationLimit}, nil
}

// Apply runs all rules repeatedly until the text stops changing or the
// iteration limit is hit. Chained rules (a => b, b => c) converge; cyclic
// rule sets terminate at the limit instead of spinning.
func (e *Engine) Apply(text string) string {
	if len(e.rules) == 0 {
		return text
	}

	result := text
	for i := 0; i < e.iterationLimit; i++ {
		changed := false
		for _, r := range e.rules {
			next, ruleChanged := r.apply(result)
			if ruleChanged {
				result = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return result
}

func compileRules(contents string) ([]rule, error) {
	lines := strings.Split(contents, "\n")
	compiled := make([]rule, 0, len(lines))

	for index, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var (
			r   rule
			err error
		)
		switch {
		case looksLikeSedRule(line):
			r, err = compileSedRule(line)
		case strings.Contains(line, "=>"):
			r, err = compileLiteralRule(line)
		default:
			err = errors.New("unsupported rule format")
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", index+1, err)
		}
		compiled = append(compiled, r)
	}

	return compiled, nil
}

// literalRule matches its source case-insensitively everywhere, the way a
// spoken phrase lands in a transcript.
type literalRule struct {
	re          *regexp.Regexp
	replacement string
}

func compileLiteralRule(line string) (rule, error) {
	parts := strings.SplitN(line, "=>", 2)
	from := strings.TrimSpace(parts[0])
	to := strings.TrimSpace(parts[1])
	if from == "" {
		return nil, errors.New("literal rule source cannot be empty")
	}

	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(from))
	if err != nil {
		return nil, fmt.Errorf("invalid literal source: %w", err)
	}
	return literalRule{re: re, replacement: to}, nil
}

func (r literalRule) apply(input string) (string, bool) {
	output := r.re.ReplaceAllString(input, r.replacement)
	return output, output != input
}

// sedRule is a s/pattern/replacement/flags expression. Matching is
// case-insensitive unless the pattern overrides it; the g flag switches
// from first-match to global replacement.
type sedRule struct {
	re          *regexp.Regexp
	replacement string
	global      bool
}

func compileSedRule(line string) (rule, error) {
	delim := line[1]

	pattern, pos, err := readDelimited(line, 2, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	replacement, pos, err := readDelimited(line, pos, delim)
	if err != nil {
		return nil, fmt.Errorf("invalid replacement: %w", err)
	}

	global := false
	inline := "i"
	for _, flag := range strings.TrimSpace(line[pos:]) {
		switch flag {
		case 'g':
			global = true
		case 'i':
			// already the default
		case 'm':
			inline += "m"
		case 's':
			inline += "s"
		case ' ':
		default:
			return nil, fmt.Errorf("unsupported flag %q", flag)
		}
	}

	re, err := regexp.Compile("(?" + inline + ")" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}
	return sedRule{re: re, replacement: replacement, global: global}, nil
}

func (r sedRule) apply(input string) (string, bool) {
	if r.global {
		output := r.re.ReplaceAllString(input, r.replacement)
		return output, output != input
	}

	loc := r.re.FindStringIndex(input)
	if loc == nil {
		return input, false
	}
	replaced := r.re.ReplaceAllString(input[loc[0]:loc[1]], r.replacement)
	output := input[:loc[0]] + replaced + input[loc[1]:]
	return output, output != input
}

func readDelimited(line string, start int, delim byte) (string, int, error) {
	if start >= len(line) {
		return "", 0, errors.New("unexpected end of expression")
	}

	var b strings.Builder
	escaped := false
	for i := start; i < len(line); i++ {
		c := line[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			b.WriteByte(c)
			continue
		}
		if c == delim {
			return b.String(), i + 1, nil
		}
		b.WriteByte(c)
	}
	return "", 0, errors.New("unterminated expression")
}

// looksLikeSedRule distinguishes "s/.../.../" from a literal rule that
// happens to start with the letter s.
func looksLikeSedRule(line string) bool {
	if len(line) < 2 || line[0] != 's' {
		return false
	}
	d := line[1]
	alnum := (d >= 'a' && d <= 'z') || (d >= 'A' && d <= 'Z') || (d >= '0' && d <= '9')
	return !alnum && d != ' ' && d != '\t'
}
