package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LynnColeArt/gemmbench/compute"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestList(t *testing.T) {
	out, _, err := execute(t, "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(compute.Variants()))
	assert.True(t, strings.HasPrefix(lines[0], compute.HGEMM))
	assert.Contains(t, out, "N%128 K%64")
	assert.Contains(t, out, "M<=8")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "gemmbench "))
}

func TestRunText(t *testing.T) {
	out, _, err := execute(t, "-m", "2", "-k", "128", "-n", "256",
		"--variants", compute.EdgeMM+","+compute.EdgeMV)
	require.NoError(t, err)

	assert.Contains(t, out, compute.EdgeMM+" verse reference: true")
	assert.Contains(t, out, compute.EdgeMV+" verse reference: skipped")
}

func TestRunJSON(t *testing.T) {
	out, _, err := execute(t, "-m", "1", "-k", "64", "-n", "128",
		"--dtype", "float32", "--variants", compute.FastGEMV, "--json", "--strict")
	require.NoError(t, err)

	var report struct {
		DType   string `json:"dtype"`
		Results []struct {
			Name       string `json:"name"`
			Comparison struct {
				Pass bool `json:"pass"`
			} `json:"comparison"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "float32", report.DType)
	require.Len(t, report.Results, 1)
	assert.Equal(t, compute.FastGEMV, report.Results[0].Name)
	assert.True(t, report.Results[0].Comparison.Pass)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"UnknownVariant", []string{"--variants", "nope"}, "nope"},
		{"BadDType", []string{"--dtype", "int4"}, "int4"},
		{"BadShape", []string{"-m", "0"}, "positive"},
		{"NegativeTolerance", []string{"-m", "1", "-k", "8", "-n", "8", "--rtol", "-1"}, "non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, stderr, tt.want)
			assert.Equal(t, 1, exitCode(err))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(&mismatchError{variants: []string{"a", "b"}}))
	assert.Equal(t, 1, exitCode(errors.New("other")))
	assert.Equal(t, "verification failed for a, b", (&mismatchError{variants: []string{"a", "b"}}).Error())
}
