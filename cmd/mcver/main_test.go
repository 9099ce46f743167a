package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pgaskin/mcver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunText(t *testing.T) {
	testcase := []struct {
		name   string
		args   []string
		stdin  string
		code   int
		stdout string
	}{
		{
			name:   "Both directions",
			args:   []string{"1.21.5", "25.2.1"},
			stdout: "1.21.5\t25.1\n1.21.7\t25.2.1\n",
		},
		{
			name:   "Drop only",
			args:   []string{"-t", "drop", "1.20.2", "1.20"},
			stdout: "23.1.2\n23.1\n",
		},
		{
			name:   "Classic only",
			args:   []string{"--to=classic", "23.1", "26.1", "15.1"},
			stdout: "1.20\n1.22\n15.1\n",
		},
		{
			name:   "Custom alias",
			args:   []string{"-s", "custom", "-t", "classic", "25.4", "1.21.11", "27.1"},
			stdout: "1.22\n1.22\n1.24\n",
		},
		{
			name:   "Unmapped classic to drop",
			args:   []string{"-t", "drop", "1.22"},
			code:   1,
			stdout: "\n",
		},
		{
			name:   "Unmapped classic to classic",
			args:   []string{"-t", "classic", "1.22"},
			stdout: "1.22\n",
		},
		{
			name:   "Unmapped classic to both",
			args:   []string{"1.22"},
			code:   1,
			stdout: "1.22\t-\n",
		},
		{
			name:   "Invalid input",
			args:   []string{"abc", "1.0"},
			code:   1,
			stdout: "\n1.0.0\t11.1\n",
		},
		{
			name:   "Stdin",
			stdin:  "1.21.11\n\n  25.3.1 \n",
			args:   []string{"-s", "custom"},
			stdout: "1.22\t25.4\n1.21.10\t25.3.1\n",
		},
		{
			name: "Unknown scheme",
			args: []string{"-s", "bedrock", "1.0"},
			code: 2,
		},
		{
			name: "Unknown target",
			args: []string{"-t", "both-ways", "1.0"},
			code: 2,
		},
		{
			name: "Unknown format",
			args: []string{"-f", "xml", "1.0"},
			code: 2,
		},
		{
			name: "Unknown flag",
			args: []string{"--nope"},
			code: 2,
		},
		{
			name: "Help",
			args: []string{"--help"},
			code: 0,
		},
	}

	for _, tt := range testcase {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runCLI(t, tt.stdin, tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.stdout, stdout)
		})
	}
}

func TestRunJSON(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "-f", "json", "1.21.5", "1.22", "2.0")
	assert.Equal(t, 1, code)

	var rs []mcver.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &rs))
	require.Len(t, rs, 3)

	assert.Equal(t, "1.21.5", rs[0].Input)
	assert.Equal(t, "historical", rs[0].Scheme)
	assert.Equal(t, "classic", rs[0].Family)
	assert.Equal(t, "1.21.5", rs[0].Classic)
	assert.Equal(t, "25.1", rs[0].Drop)
	assert.Empty(t, rs[0].Error)

	assert.Equal(t, "1.22", rs[1].Classic)
	assert.Empty(t, rs[1].Drop)
	assert.Contains(t, rs[1].Error, mcver.ErrUnmappedVersion.Error())

	assert.Empty(t, rs[2].Family)
	assert.Contains(t, rs[2].Error, mcver.ErrInvalidRange.Error())
}

func TestRunYAML(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "--format=yaml", "--scheme=custom", "1.22.3")
	assert.Equal(t, 0, code)

	var rs []mcver.Result
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &rs))
	require.Len(t, rs, 1)
	assert.Equal(t, mcver.Result{
		Input:   "1.22.3",
		Scheme:  "custom",
		Family:  "classic",
		Classic: "1.22.3",
		Drop:    "25.4.3",
	}, rs[0])
}

func TestRunVerbose(t *testing.T) {
	code, _, stderr := runCLI(t, "", "-v", "1.21.5")
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "converted version")
}
