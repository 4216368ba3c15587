// Package rules implements the allow/disallow rule lists attached to
// version-manifest artifacts. A rule list is evaluated against the host's
// platform signature and the set of enabled feature flags; later matching
// rules fully override earlier ones.
package rules

import (
	"fmt"
	"regexp"

	"github.com/lodestonemc/lodestone/internal/platform"
)

// Action is the effect of a matching rule.
type Action string

const (
	Allow    Action = "allow"
	Disallow Action = "disallow"
)

// ParseAction maps a manifest action string to an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "allow":
		return Allow, nil
	case "disallow":
		return Disallow, nil
	default:
		return "", fmt.Errorf("unknown rule action %q", s)
	}
}

// OSCondition constrains a rule to hosts matching an OS name and, optionally,
// version and architecture patterns. Version and Arch are regular
// expressions matched against the host's version string and rule-vocabulary
// architecture name.
type OSCondition struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Arch    string `json:"arch,omitempty"`
}

// Rule is one allow/disallow directive. Conditions absent from a rule are
// vacuously satisfied, so a rule with neither OS nor Features always matches.
type Rule struct {
	Action   Action          `json:"action"`
	OS       *OSCondition    `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// Host is the evaluation context: the detected platform signature, the host
// OS version string matched by os.version patterns, and the enabled feature
// flags. HostVersion is injectable so evaluation stays deterministic.
type Host struct {
	Signature   platform.Signature
	HostVersion string
	Features    map[string]bool
}

// Evaluate decides whether an artifact guarded by rules applies to host.
//
// An empty rule list means unconditional inclusion. Otherwise the result
// starts as false and each matching rule overwrites it with (action ==
// allow); the value after the last rule is the answer. This reproduces the
// manifest's last-match-wins, default-closed-when-rules-present semantics.
// The function is pure and safe for concurrent use.
func Evaluate(rs []Rule, host Host) bool {
	if len(rs) == 0 {
		return true
	}
	permitted := false
	for _, r := range rs {
		if r.matches(host) {
			permitted = r.Action == Allow
		}
	}
	return permitted
}

func (r Rule) matches(host Host) bool {
	if r.OS != nil {
		if r.OS.Name != "" && r.OS.Name != platform.RuleOSName(host.Signature.OS) {
			return false
		}
		if r.OS.Arch != "" && !patternMatch(r.OS.Arch, platform.RuleArchName(host.Signature.Arch)) {
			return false
		}
		if r.OS.Version != "" && !patternMatch(r.OS.Version, host.HostVersion) {
			return false
		}
	}
	for name, want := range r.Features {
		if host.Features[name] != want {
			return false
		}
	}
	return true
}

// patternMatch treats pattern as a regular expression. A pattern that does
// not compile matches nothing rather than aborting evaluation.
func patternMatch(pattern, value string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}
