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

// Package faults applies controlled faults to cluster nodes and targets.
// Applying a fault returns as soon as the mutation is durable; watching the
// HA control plane react to it is the verify package's job.
package faults

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/sinhaashish/mayastor-control-plane/pkg/nvme"
	"github.com/sinhaashish/mayastor-control-plane/pkg/openapi"
)

// Kind names an injectable fault.
type Kind string

const (
	// Cordon marks a node unschedulable for new replicas under a drain label.
	Cordon Kind = "cordon"
	// Uncordon removes a drain label, making the node schedulable again.
	Uncordon Kind = "uncordon"
	// StopTarget stops the container hosting the volume's target node.
	StopTarget Kind = "stop-target"
	// RestartTarget restarts the target node's container, modelling a
	// transient failure the original node recovers from.
	RestartTarget Kind = "restart-target"
	// SetReconnectDelay configures the initiator's reconnect wait for the
	// volume's subsystem, in seconds.
	SetReconnectDelay Kind = "set-reconnect-delay"
)

// Spec describes one fault: its kind and the identity it acts on. Specs are
// ephemeral; reversing a fault is another Spec (cordon/uncordon,
// stop/restart).
type Spec struct {
	Kind              Kind
	Node              string
	DrainLabel        string
	DeviceURI         string
	ReconnectDelaySec int
}

func (s Spec) String() string {
	switch s.Kind {
	case Cordon, Uncordon:
		return fmt.Sprintf("%s %s (label %q)", s.Kind, s.Node, s.DrainLabel)
	case SetReconnectDelay:
		return fmt.Sprintf("%s %ds on %s", s.Kind, s.ReconnectDelaySec, s.DeviceURI)
	default:
		return fmt.Sprintf("%s %s", s.Kind, s.Node)
	}
}

// InjectionError wraps a failed fault application. The fault is fatal to a
// scenario; no retries are attempted.
type InjectionError struct {
	Fault Spec
	Err   error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("injecting fault %s: %v", e.Fault, e.Err)
}

func (e *InjectionError) Unwrap() error { return e.Err }

// ControlPlane is the node-mutation surface the injector needs.
type ControlPlane interface {
	PutNodeCordon(ctx context.Context, id, label string) (*openapi.Node, error)
	DeleteNodeCordon(ctx context.Context, id, label string) (*openapi.Node, error)
}

// ContainerRuntime is the target-process surface the injector needs.
type ContainerRuntime interface {
	StopContainer(ctx context.Context, name string) error
	RestartContainer(ctx context.Context, name string) error
}

// Initiator is the reconnect-tuning surface the injector needs.
type Initiator interface {
	SetReconnectDelay(ctx context.Context, deviceURI string, delaySec int) error
}

// nvmeInitiator is the production Initiator, backed by the nvme package.
type nvmeInitiator struct{}

func (nvmeInitiator) SetReconnectDelay(ctx context.Context, deviceURI string, delaySec int) error {
	return nvme.SetReconnectDelay(ctx, deviceURI, delaySec)
}

// Injector applies fault specs against a running cluster.
type Injector struct {
	control   ControlPlane
	runtime   ContainerRuntime
	initiator Initiator
}

// NewInjector wires an injector to the cluster's control plane and container
// runtime, with the host's nvme initiator.
func NewInjector(control ControlPlane, runtime ContainerRuntime) *Injector {
	return &Injector{control: control, runtime: runtime, initiator: nvmeInitiator{}}
}

// WithInitiator overrides the initiator, for tests.
func (i *Injector) WithInitiator(init Initiator) *Injector {
	i.initiator = init
	return i
}

// Apply performs the mutation described by spec. It returns once the
// mutation call has succeeded; it never waits for the cluster to converge.
func (i *Injector) Apply(ctx context.Context, spec Spec) error {
	klog.Infof("injecting fault: %s", spec)
	var err error
	switch spec.Kind {
	case Cordon:
		_, err = i.control.PutNodeCordon(ctx, spec.Node, spec.DrainLabel)
	case Uncordon:
		_, err = i.control.DeleteNodeCordon(ctx, spec.Node, spec.DrainLabel)
	case StopTarget:
		err = i.runtime.StopContainer(ctx, spec.Node)
	case RestartTarget:
		err = i.runtime.RestartContainer(ctx, spec.Node)
	case SetReconnectDelay:
		err = i.initiator.SetReconnectDelay(ctx, spec.DeviceURI, spec.ReconnectDelaySec)
	default:
		err = errors.Errorf("unknown fault kind %q", spec.Kind)
	}
	if err != nil {
		return &InjectionError{Fault: spec, Err: err}
	}
	return nil
}
