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

// Package oci controls cluster node containers through the docker CLI.
// The control plane and io-engine instances each run in a named container;
// stopping or restarting one is how target faults are injected.
package oci

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Docker is the default container runtime binary
const Docker = "docker"

// Runtime shells out to a container runtime binary (docker by default).
type Runtime struct {
	binary string
}

// New returns a Runtime for the given binary, defaulting to docker.
func New(binary string) *Runtime {
	if binary == "" {
		binary = Docker
	}
	return &Runtime{binary: binary}
}

// StopContainer stops a running container by name.
func (r *Runtime) StopContainer(ctx context.Context, name string) error {
	if _, err := runCmd(ctx, exec.Command(r.binary, "stop", name)); err != nil {
		return errors.Wrapf(err, "stopping container %s", name)
	}
	return nil
}

// StartContainer starts a stopped container by name.
func (r *Runtime) StartContainer(ctx context.Context, name string) error {
	if _, err := runCmd(ctx, exec.Command(r.binary, "start", name)); err != nil {
		return errors.Wrapf(err, "starting container %s", name)
	}
	return nil
}

// RestartContainer restarts a container by name. The container keeps its
// filesystem and address, modelling a transient node failure rather than a
// permanent one.
func (r *Runtime) RestartContainer(ctx context.Context, name string) error {
	if _, err := runCmd(ctx, exec.Command(r.binary, "restart", name)); err != nil {
		return errors.Wrapf(err, "restarting container %s", name)
	}
	return nil
}

// ContainerRunning reports whether the named container exists and is running.
func (r *Runtime) ContainerRunning(ctx context.Context, name string) (bool, error) {
	rr, err := runCmd(ctx, exec.Command(r.binary, "inspect", "-f", "{{.State.Running}}", name))
	if err != nil {
		return false, errors.Wrapf(err, "inspecting container %s", name)
	}
	return strings.TrimSpace(rr.Stdout.String()) == "true", nil
}

// ListContainers returns the names of containers whose name matches filter,
// including stopped ones.
func (r *Runtime) ListContainers(ctx context.Context, filter string) ([]string, error) {
	args := []string{"ps", "-a", "--format", "{{.Names}}"}
	if filter != "" {
		args = append(args, "--filter", fmt.Sprintf("name=%s", filter))
	}
	rr, err := runCmd(ctx, exec.Command(r.binary, args...))
	if err != nil {
		return nil, errors.Wrap(err, "listing containers")
	}
	var names []string
	for _, line := range strings.Split(rr.Stdout.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}
