/*
Copyright 2019 The Kubernetes Authors All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package oci

import (
	"context"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunResultCommandQuotesSpacedArgs(t *testing.T) {
	rr := RunResult{Args: []string{"docker", "ps", "--format", "{{.Names}} {{.Status}}"}}
	assert.Equal(t, `docker ps --format "{{.Names}} {{.Status}}"`, rr.Command())
}

func TestRunCmdCapturesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	rr, err := runCmd(context.Background(), exec.Command("sh", "-c", "echo running"))
	require.NoError(t, err)
	assert.Equal(t, "running\n", rr.Stdout.String())
	assert.Equal(t, 0, rr.ExitCode)
}

func TestRunCmdReportsExitCodeAndStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	rr, err := runCmd(context.Background(), exec.Command("sh", "-c", "echo no such container >&2; exit 1"))
	require.Error(t, err)
	assert.Equal(t, 1, rr.ExitCode)
	assert.Contains(t, rr.Stderr.String(), "no such container")
	assert.Contains(t, err.Error(), "no such container")
}

func TestNewDefaultsToDocker(t *testing.T) {
	assert.Equal(t, Docker, New("").binary)
	assert.Equal(t, "podman", New("podman").binary)
}
