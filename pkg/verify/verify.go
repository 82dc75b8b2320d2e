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

// Package verify polls observable cluster state until a convergence
// predicate holds or its bounded budget runs out. Convergence is eventually
// consistent relative to fault injection, so every attempt re-fetches live
// state; nothing is cached between attempts.
package verify

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/sinhaashish/mayastor-control-plane/pkg/nvme"
	"github.com/sinhaashish/mayastor-control-plane/pkg/openapi"
	"github.com/sinhaashish/mayastor-control-plane/pkg/retry"
)

// Budget bounds a convergence wait. The interval/attempts pair encodes the
// expected latency class: path failover involves reconnect backoff and takes
// seconds, a cordon is an etcd-backed metadata change and takes milliseconds.
type Budget struct {
	Interval time.Duration
	Attempts int
}

var (
	// PathBudget bounds waiting for a volume's I/O path after a target
	// fault: republish plus initiator reconnect, up to ~40s.
	PathBudget = Budget{Interval: time.Second, Attempts: 40}
	// CordonBudget bounds waiting for a node cordon to be applied, ~2s.
	CordonBudget = Budget{Interval: 200 * time.Millisecond, Attempts: 10}
)

// NodeGetter fetches live node state.
type NodeGetter interface {
	GetNode(ctx context.Context, id string) (*openapi.Node, error)
}

// Waiter verifies convergence predicates against live cluster state.
type Waiter struct {
	nodes          NodeGetter
	listSubsystems func(ctx context.Context, deviceURI string) (*nvme.SubsystemList, error)
}

// NewWaiter returns a Waiter reading node state from nodes and path state
// from the host's nvme initiator.
func NewWaiter(nodes NodeGetter) *Waiter {
	return &Waiter{nodes: nodes, listSubsystems: nvme.ListSubsystems}
}

// WithSubsystemLister overrides the path-state source, for tests.
func (w *Waiter) WithSubsystemLister(fn func(ctx context.Context, deviceURI string) (*nvme.SubsystemList, error)) *Waiter {
	w.listSubsystems = fn
	return w
}

// PathEstablished waits under PathBudget for the volume behind deviceURI to
// converge to exactly one subsystem with exactly one live path, returning
// the converged observation. On budget exhaustion the returned error is a
// *retry.TimeoutError carrying the last observation mismatch.
func (w *Waiter) PathEstablished(ctx context.Context, deviceURI string) (*nvme.SubsystemList, error) {
	return w.PathEstablishedWithin(ctx, deviceURI, PathBudget)
}

// PathEstablishedWithin is PathEstablished with an explicit budget, used by
// scenarios that expect the path NOT to come back within a bound.
func (w *Waiter) PathEstablishedWithin(ctx context.Context, deviceURI string, budget Budget) (*nvme.SubsystemList, error) {
	var observed *nvme.SubsystemList
	err := retry.Poll(ctx, budget.Interval, budget.Attempts, func() error {
		desc, err := w.listSubsystems(ctx, deviceURI)
		if err != nil {
			return err
		}
		observed = desc
		if len(desc.Subsystems) != 1 {
			return errors.Errorf("want exactly one subsystem for target nexus, observed %s", desc)
		}
		paths := desc.Subsystems[0].Paths
		if len(paths) != 1 {
			return errors.Errorf("want exactly one I/O path to target nexus, observed %s", desc)
		}
		if paths[0].State != nvme.PathStateLive {
			return errors.Errorf("I/O path is not healthy, observed %s", desc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return observed, nil
}

// NodeCordoned waits under CordonBudget for the node's spec to report an
// applied cordon, returning the converged node.
func (w *Waiter) NodeCordoned(ctx context.Context, nodeID string) (*openapi.Node, error) {
	var observed *openapi.Node
	err := retry.Poll(ctx, CordonBudget.Interval, CordonBudget.Attempts, func() error {
		node, err := w.nodes.GetNode(ctx, nodeID)
		if err != nil {
			return err
		}
		observed = node
		if !node.Spec.Cordoned() {
			return errors.Errorf("node %s is not cordoned yet", nodeID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return observed, nil
}

// IsTimeout reports whether err is a verifier budget exhaustion. Scenarios
// that expect a timeout as their passing outcome assert on this.
func IsTimeout(err error) bool {
	var te *retry.TimeoutError
	return errors.As(err, &te)
}
