// Package filter provides the rule-based inclusion system for mdrive.
//
// A rule file holds one rule per line, fields separated by a single tab:
//
//	<pattern>[TAB<mode>]
//
// Blank lines and lines starting with # are skipped. Patterns are glob
// expressions relative to the library root; `**` matches any number of
// path segments, so `Artist/**` selects everything under Artist/. A
// leading `!` negates the pattern: a matching file is excluded and no
// further rules are consulted. <mode> is one of organized, shuffled or
// both (the default).
//
// Rules are evaluated in file order and the first match wins. A file
// matching no rule is excluded.
package filter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/calebhs/mdrive/pkg/errors"
	"github.com/calebhs/mdrive/pkg/logging"
)

// Rule is a single compiled inclusion/exclusion rule.
// Rules are immutable once loaded.
type Rule struct {
	// Pattern is a glob pattern relative to the library root
	Pattern string

	// Negated marks an exclusion rule (leading ! in the rule file)
	Negated bool

	// Mode selects which destination layout(s) the rule feeds
	Mode Mode
}

// Set is an ordered list of rules loaded from a rule file.
type Set struct {
	rules  []Rule
	logger zerolog.Logger
}

// Rules returns the compiled rules in evaluation order.
func (s *Set) Rules() []Rule {
	return s.rules
}

// Load reads and compiles a rule file from disk.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot open rule file %s", path)
	}
	defer f.Close()

	set, err := Parse(f)
	if err != nil {
		var merr *errors.MdriveError
		if e, ok := err.(*errors.MdriveError); ok {
			merr = e.WithDetail("file", path)
		} else {
			merr = errors.Wrap(err, errors.ErrConfigParse, "cannot parse rule file").WithDetail("file", path)
		}
		return nil, merr
	}
	return set, nil
}

// Parse compiles rule lines from r into a Set.
func Parse(r io.Reader) (*Set, error) {
	logger := logging.GetLogger("filter")

	set := &Set{logger: logger}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule, err := parseRule(line)
		if err != nil {
			if merr, ok := err.(*errors.MdriveError); ok {
				return nil, merr.WithDetail("line", lineNo)
			}
			return nil, err
		}

		logger.Debug().
			Str("pattern", rule.Pattern).
			Bool("negated", rule.Negated).
			Str("mode", rule.Mode.String()).
			Msg("Loaded rule")
		set.rules = append(set.rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed reading rule file")
	}

	logger.Debug().Int("ruleCount", len(set.rules)).Msg("Rule file compiled")
	return set, nil
}

func parseRule(line string) (Rule, error) {
	fields := strings.Split(line, "\t")
	if len(fields) > 2 {
		return Rule{}, errors.Newf(errors.ErrConfigParse,
			"malformed rule %q: expected <pattern>[TAB<mode>], got %d fields", line, len(fields))
	}

	pattern := fields[0]
	negated := strings.HasPrefix(pattern, "!")
	if negated {
		pattern = strings.TrimPrefix(pattern, "!")
	}
	if pattern == "" {
		return Rule{}, errors.Newf(errors.ErrConfigParse, "malformed rule %q: empty pattern", line)
	}
	if !doublestar.ValidatePattern(pattern) {
		return Rule{}, errors.Newf(errors.ErrConfigParse, "malformed rule %q: invalid glob pattern", line)
	}

	mode := ModeBoth
	if len(fields) == 2 {
		var err error
		mode, err = ParseMode(fields[1])
		if err != nil {
			return Rule{}, err
		}
	}

	return Rule{Pattern: pattern, Negated: negated, Mode: mode}, nil
}

// Resolve evaluates the rules against a slash-separated path relative
// to the library root. It returns the mode of the first matching rule
// and true, or false if the path is excluded (explicitly by a negated
// rule, or implicitly by matching nothing).
func (s *Set) Resolve(relPath string) (Mode, bool) {
	relPath = strings.TrimPrefix(relPath, "./")
	for _, rule := range s.rules {
		// Patterns are validated at parse time, match cannot fail.
		matched, _ := doublestar.Match(rule.Pattern, relPath)
		if !matched {
			continue
		}
		if rule.Negated {
			s.logger.Trace().
				Str("path", relPath).
				Str("pattern", rule.Pattern).
				Msg("Path excluded by rule")
			return 0, false
		}
		return rule.Mode, true
	}
	return 0, false
}

// String renders a rule in rule-file syntax, for logging.
func (r Rule) String() string {
	neg := ""
	if r.Negated {
		neg = "!"
	}
	return fmt.Sprintf("%s%s\t%s", neg, r.Pattern, r.Mode)
}
