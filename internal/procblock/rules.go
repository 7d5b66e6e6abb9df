// Package procblock decides whether a clipboard capture must be suppressed
// because a sensitive process is running.
//
// A block specification is a comma-separated list of rules. Each rule is a
// command-line substring, optionally followed by ":<seconds>":
//
//	pass:10,scary_app
//
// "pass:10" vetoes captures while a process whose command line contains
// "pass" is younger than ten seconds. "scary_app" vetoes captures for as long
// as such a process runs.
package procblock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrBadSpec is returned for a block specification that cannot be parsed.
var ErrBadSpec = errors.New("procblock: malformed block specification")

// Rule is one entry of a block specification.
type Rule struct {
	Substring string
	// MaxAge bounds the age of a matching process; zero means unbounded.
	MaxAge time.Duration
}

// Bounded reports whether the rule only applies to young processes.
func (r Rule) Bounded() bool { return r.MaxAge > 0 }

func (r Rule) String() string {
	if r.Bounded() {
		return fmt.Sprintf("%s:%d", r.Substring, int64(r.MaxAge/time.Second))
	}
	return r.Substring
}

// Matches reports whether p satisfies the rule.
func (r Rule) Matches(p Process) bool {
	if !strings.Contains(p.Cmdline, r.Substring) {
		return false
	}
	return !r.Bounded() || p.Age < r.MaxAge
}

// ParseSpec parses a block specification. Empty rules are skipped, so an
// empty spec yields no rules.
func ParseSpec(spec string) ([]Rule, error) {
	var rules []Rule
	for _, raw := range strings.Split(spec, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, age, hasAge := strings.Cut(raw, ":")
		if name == "" {
			return nil, fmt.Errorf("%w: rule %q has no process name", ErrBadSpec, raw)
		}
		r := Rule{Substring: name}
		if hasAge {
			secs, err := strconv.ParseUint(strings.TrimSpace(age), 10, 32)
			if err != nil || secs == 0 {
				return nil, fmt.Errorf("%w: rule %q needs a positive age in seconds", ErrBadSpec, raw)
			}
			r.MaxAge = time.Duration(secs) * time.Second
		}
		rules = append(rules, r)
	}
	return rules, nil
}
