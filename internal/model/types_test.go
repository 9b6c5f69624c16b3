package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRefKind_IsValid checks that only defined ref kinds pass validation.
func TestRefKind_IsValid(t *testing.T) {
	assert.True(t, RefKindDev.IsValid())
	assert.True(t, RefKindRelease.IsValid())
	assert.False(t, RefKind("feature").IsValid())
	assert.False(t, RefKind("").IsValid())
}

// TestParseRefKind verifies string-to-kind conversion,
// including case normalization and error cases.
func TestParseRefKind(t *testing.T) {
	tests := []struct {
		input    string
		expected RefKind
		hasError bool
	}{
		{"dev", RefKindDev, false},
		{"release", RefKindRelease, false},
		{"RELEASE", RefKindRelease, false}, // case insensitive
		{"hotfix", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseRefKind(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestParseBumpKind(t *testing.T) {
	tests := []struct {
		input    string
		expected BumpKind
		hasError bool
	}{
		{"patch", BumpPatch, false},
		{"minor", BumpMinor, false},
		{" Major ", BumpMajor, false},
		{"prerelease", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseBumpKind(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestBumpKinds_DefaultFirst pins the order choices are offered in;
// the first entry is the prompt default.
func TestBumpKinds_DefaultFirst(t *testing.T) {
	assert.Equal(t, []BumpKind{BumpPatch, BumpMinor, BumpMajor}, BumpKinds)
}

// TestNamingConvention verifies the branch and tag naming scheme.
func TestNamingConvention(t *testing.T) {
	assert.Equal(t, "dev/0.1.0", WorkingBranch("0.1.0"))
	assert.Equal(t, "release/2.3.4", ReleaseTag("2.3.4"))
}

// TestExitCodes_SyncAbortIsSoft pins the soft-abort contract: a failed pull
// stops the workflow but is not reported as a process failure.
func TestExitCodes_SyncAbortIsSoft(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitSyncAborted)
	assert.NotEqual(t, ExitSuccess, ExitConflict)
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitConflict, "working tree has conflicts")
		assert.Equal(t, ExitConflict, err.Code)
		assert.Equal(t, "working tree has conflicts", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("remote hung up")
		err := WrapCLIError(ExitGitError, "push failed", inner)
		assert.Equal(t, ExitGitError, err.Code)
		assert.Contains(t, err.Error(), "remote hung up")
		assert.Equal(t, inner, err.Unwrap())
	})

	t.Run("errors.As chain", func(t *testing.T) {
		inner := errors.New("remote hung up")
		wrapped := WrapCLIError(ExitGitError, "push failed", inner)
		var target *CLIError
		require.True(t, errors.As(error(wrapped), &target))
		assert.True(t, errors.Is(target, inner))
	})
}
