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

// Package cluster starts and stops a disposable control-plane cluster by
// shelling out to the deployer binary, and owns the fixtures (backing disks,
// readiness checks) a scenario needs around it.
package cluster

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/sinhaashish/mayastor-control-plane/pkg/oci"
	"github.com/sinhaashish/mayastor-control-plane/pkg/openapi"
	"github.com/sinhaashish/mayastor-control-plane/pkg/retry"
)

// Options configure deployer start. The zero value is not useful; use
// DefaultOptions.
type Options struct {
	IoEngines       int
	CachePeriod     string
	ReconcilePeriod string
	FasterRequeue   string
	ClusterAgent    bool
	NodeAgent       bool
	CsiNode         bool
}

// DefaultOptions match the HA robustness scenarios: two io-engines with fast
// cache/reconcile periods and the HA agents enabled.
func DefaultOptions() Options {
	return Options{
		IoEngines:       2,
		CachePeriod:     "1s",
		ReconcilePeriod: "1s",
		ClusterAgent:    true,
		NodeAgent:       true,
		CsiNode:         true,
	}
}

// Cluster is a running deployer cluster plus the handles a scenario uses to
// reach it.
type Cluster struct {
	opts     Options
	deployer string
	API      *openapi.Client
	Runtime  *oci.Runtime
}

// NodeName returns the io-engine node name for a 1-based index.
func NodeName(index int) string {
	return fmt.Sprintf("io-engine-%d", index)
}

// Start launches the cluster and blocks until the REST API answers.
func Start(ctx context.Context, opts Options) (*Cluster, error) {
	c := &Cluster{
		opts:     opts,
		deployer: DeployerBinary(),
		API:      openapi.NewClient(RestURL()),
		Runtime:  oci.New(DockerBinary()),
	}

	args := []string{
		"start",
		"--io-engines", fmt.Sprintf("%d", opts.IoEngines),
	}
	if opts.CachePeriod != "" {
		args = append(args, "--cache-period", opts.CachePeriod)
	}
	if opts.ReconcilePeriod != "" {
		args = append(args, "--reconcile-period", opts.ReconcilePeriod)
	}
	if opts.FasterRequeue != "" {
		args = append(args, "--faster-requeue", opts.FasterRequeue)
	}
	if opts.ClusterAgent {
		args = append(args, "--cluster-agent")
	}
	if opts.NodeAgent {
		args = append(args, "--node-agent")
	}
	if opts.CsiNode {
		args = append(args, "--csi-node")
	}

	if err := c.run(ctx, args...); err != nil {
		return nil, errors.Wrap(err, "deployer start")
	}
	if err := c.API.WaitReady(ctx, 30*time.Second); err != nil {
		// Leave nothing behind if the control plane never came up.
		if stopErr := c.Stop(ctx); stopErr != nil {
			klog.Warningf("stopping half-started cluster: %v", stopErr)
		}
		return nil, err
	}

	// Containers register with the control plane asynchronously after
	// deployer start; back off until the whole cluster checks out.
	if err := retry.Expo(func() error { return c.SanityCheck(ctx) }, 250*time.Millisecond, 15*time.Second); err != nil {
		if stopErr := c.Stop(ctx); stopErr != nil {
			klog.Warningf("stopping unhealthy cluster: %v", stopErr)
		}
		return nil, err
	}
	return c, nil
}

// Stop tears the cluster down. Safe to call from deferred cleanup.
func (c *Cluster) Stop(ctx context.Context) error {
	if err := c.run(ctx, "stop"); err != nil {
		return errors.Wrap(err, "deployer stop")
	}
	return nil
}

// Stop tears down whatever deployer cluster is running, without needing the
// Cluster handle that started it.
func Stop(ctx context.Context) error {
	c := &Cluster{deployer: DeployerBinary()}
	return c.Stop(ctx)
}

// SanityCheck verifies the control-plane containers are running, the
// io-engine containers are running, and the API reports the expected node
// count.
func (c *Cluster) SanityCheck(ctx context.Context) error {
	for _, component := range []string{"core", "rest", "etcd"} {
		running, err := c.Runtime.ContainerRunning(ctx, component)
		if err != nil {
			return err
		}
		if !running {
			return errors.Errorf("control-plane container %q is not running", component)
		}
	}

	engines, err := c.Runtime.ListContainers(ctx, "io-engine")
	if err != nil {
		return err
	}
	if len(engines) != c.opts.IoEngines {
		return errors.Errorf("expected %d io-engine containers, found %d (%s)",
			c.opts.IoEngines, len(engines), strings.Join(engines, ", "))
	}
	for _, engine := range engines {
		running, err := c.Runtime.ContainerRunning(ctx, engine)
		if err != nil {
			return err
		}
		if !running {
			return errors.Errorf("io-engine container %q is not running", engine)
		}
	}

	nodes, err := c.API.GetNodes(ctx)
	if err != nil {
		return err
	}
	if len(nodes) != c.opts.IoEngines {
		return errors.Errorf("expected %d nodes, control plane reports %d", c.opts.IoEngines, len(nodes))
	}
	return nil
}

func (c *Cluster) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, c.deployer, args...)
	klog.Infof("Run: %s %s", c.deployer, strings.Join(args, " "))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s %s: %s", c.deployer, strings.Join(args, " "), string(out))
	}
	return nil
}
