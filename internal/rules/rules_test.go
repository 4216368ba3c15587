package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lodestonemc/lodestone/internal/platform"
	_ "github.com/lodestonemc/lodestone/internal/testhelper"
)

var (
	linuxX64 = Host{Signature: platform.Signature{OS: platform.Linux, Arch: platform.X64}}
	macArm   = Host{Signature: platform.Signature{OS: platform.MacOS, Arch: platform.Arm64}}
	winX86   = Host{Signature: platform.Signature{OS: platform.Windows, Arch: platform.X86}}
)

func TestEvaluateEmptyListAllows(t *testing.T) {
	for _, host := range []Host{linuxX64, macArm, winX86, {}} {
		assert.True(t, Evaluate(nil, host))
		assert.True(t, Evaluate([]Rule{}, host))
	}
}

func TestEvaluateLastMatchWins(t *testing.T) {
	allowAll := Rule{Action: Allow}
	disallowLinux := Rule{Action: Disallow, OS: &OSCondition{Name: "linux"}}

	assert.False(t, Evaluate([]Rule{allowAll, disallowLinux}, linuxX64))
	assert.True(t, Evaluate([]Rule{disallowLinux, allowAll}, linuxX64))
	assert.True(t, Evaluate([]Rule{allowAll, disallowLinux}, macArm),
		"disallow does not match a non-linux host")
}

func TestEvaluateDefaultClosed(t *testing.T) {
	allowOSX := []Rule{{Action: Allow, OS: &OSCondition{Name: "osx"}}}

	assert.True(t, Evaluate(allowOSX, macArm))
	assert.False(t, Evaluate(allowOSX, linuxX64),
		"a non-empty list with no matching rule denies")
	assert.False(t, Evaluate(allowOSX, winX86))
}

func TestEvaluateArchPattern(t *testing.T) {
	rs := []Rule{{Action: Allow, OS: &OSCondition{Arch: "^x86$"}}}

	assert.True(t, Evaluate(rs, winX86))
	assert.False(t, Evaluate(rs, linuxX64), "x64 must not match the x86 anchor")
}

func TestEvaluateVersionPattern(t *testing.T) {
	win10 := Host{
		Signature:   platform.Signature{OS: platform.Windows, Arch: platform.X64},
		HostVersion: "10.0",
	}
	rs := []Rule{{Action: Allow, OS: &OSCondition{Name: "windows", Version: `^10\.`}}}

	assert.True(t, Evaluate(rs, win10))

	win7 := win10
	win7.HostVersion = "6.1"
	assert.False(t, Evaluate(rs, win7))
}

func TestEvaluateFeatures(t *testing.T) {
	rs := []Rule{{Action: Allow, Features: map[string]bool{"is_demo_user": true}}}

	demo := Host{Signature: linuxX64.Signature, Features: map[string]bool{"is_demo_user": true}}
	assert.True(t, Evaluate(rs, demo))
	assert.False(t, Evaluate(rs, linuxX64), "feature absent means the rule does not match")

	notDemo := Host{Signature: linuxX64.Signature, Features: map[string]bool{"is_demo_user": false}}
	assert.False(t, Evaluate(rs, notDemo))

	// A rule requiring a flag to be false matches only when it is false.
	rsOff := []Rule{{Action: Allow, Features: map[string]bool{"is_demo_user": false}}}
	assert.True(t, Evaluate(rsOff, notDemo))
	assert.True(t, Evaluate(rsOff, linuxX64), "absent flag reads as false")
}

func TestEvaluateRealManifestShape(t *testing.T) {
	// The LWJGL natives pattern: allow everywhere, then disallow on osx.
	rs := []Rule{
		{Action: Allow},
		{Action: Disallow, OS: &OSCondition{Name: "osx"}},
	}

	assert.True(t, Evaluate(rs, linuxX64))
	assert.True(t, Evaluate(rs, winX86))
	assert.False(t, Evaluate(rs, macArm))
}

func TestEvaluateInvalidPatternMatchesNothing(t *testing.T) {
	rs := []Rule{{Action: Allow, OS: &OSCondition{Arch: "(unclosed"}}}
	assert.False(t, Evaluate(rs, winX86))
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("allow")
	assert.NoError(t, err)
	assert.Equal(t, Allow, a)

	d, err := ParseAction("disallow")
	assert.NoError(t, err)
	assert.Equal(t, Disallow, d)

	_, err = ParseAction("maybe")
	assert.Error(t, err)
}
