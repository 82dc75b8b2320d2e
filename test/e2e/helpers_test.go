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

package e2e

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/sinhaashish/mayastor-control-plane/pkg/cluster"
	"github.com/sinhaashish/mayastor-control-plane/pkg/faults"
	"github.com/sinhaashish/mayastor-control-plane/pkg/nvme"
	"github.com/sinhaashish/mayastor-control-plane/pkg/openapi"
	"github.com/sinhaashish/mayastor-control-plane/pkg/verify"
)

const (
	volumeUUID  = "5cd5378e-3f05-47f1-a830-a0f5873a1449"
	targetNode1 = "io-engine-1"
	targetNode2 = "io-engine-2"
	drainLabel  = "d"
)

// scenario threads all per-scenario state through the steps explicitly: the
// cluster, its disks, the injector/waiter pair and the volume under test.
// Everything it acquires is released through t.Cleanup, which runs on every
// exit path including assertion failures.
type scenario struct {
	t        *testing.T
	ctx      context.Context
	cluster  *cluster.Cluster
	disks    *cluster.Disks
	injector *faults.Injector
	waiter   *verify.Waiter
	volume   *openapi.Volume
}

// startScenario provisions a cluster with one pool per node and returns the
// scenario context. Teardown is registered before anything can fail.
func startScenario(t *testing.T, opts cluster.Options) *scenario {
	t.Helper()
	maybeSkip(t)

	ctx, cancel := context.WithTimeout(context.Background(), scenarioTimeout)
	t.Cleanup(cancel)

	disks, err := cluster.CreateDisks(cluster.DiskDir(), opts.IoEngines, cluster.PoolSize())
	if err != nil {
		t.Fatalf("creating backing disks: %v", err)
	}
	t.Cleanup(func() {
		if err := disks.Destroy(); err != nil {
			t.Logf("destroying disks: %v", err)
		}
	})

	c, err := cluster.Start(ctx, opts)
	if err != nil {
		t.Fatalf("starting cluster: %v", err)
	}
	t.Cleanup(func() {
		// Teardown must run even when the scenario failed; use a fresh
		// context in case the scenario's one is already done.
		if err := c.Stop(context.Background()); err != nil {
			t.Logf("stopping cluster: %v", err)
		}
	})

	for i, disk := range disks.HostPaths() {
		node := cluster.NodeName(i + 1)
		pool := fmt.Sprintf("pool-%d", i+1)
		if _, err := c.API.PutNodePool(ctx, node, pool, openapi.CreatePoolBody{Disks: []string{disk}}); err != nil {
			t.Fatalf("creating %s on %s: %v", pool, node, err)
		}
	}

	return &scenario{
		t:        t,
		ctx:      ctx,
		cluster:  c,
		disks:    disks,
		injector: faults.NewInjector(c.API, c.Runtime),
		waiter:   verify.NewWaiter(c.API),
	}
}

// createVolume creates a self-healing volume with the given replica count
// and publishes it on io-engine-1 over nvmf.
func (s *scenario) createVolume(replicas int) {
	s.t.Helper()
	id := uuid.MustParse(volumeUUID).String()

	if _, err := s.cluster.API.PutVolume(s.ctx, id, openapi.CreateVolumeBody{
		Policy:   openapi.VolumePolicy{SelfHeal: true},
		Replicas: replicas,
		Size:     uint64(cluster.VolumeSize()),
	}); err != nil {
		s.t.Fatalf("creating volume: %v", err)
	}

	volume, err := s.cluster.API.PutVolumeTarget(s.ctx, id, openapi.PublishVolumeBody{
		PublishContext: map[string]string{},
		Protocol:       openapi.ProtocolNvmf,
		Node:           targetNode1,
	})
	if err != nil {
		s.t.Fatalf("publishing volume on %s: %v", targetNode1, err)
	}
	if volume.State.Target == nil || volume.State.Target.DeviceURI == "" {
		s.t.Fatalf("published volume has no device URI: %+v", volume.State)
	}
	s.volume = volume
}

func (s *scenario) deviceURI() string {
	s.t.Helper()
	if s.volume == nil || s.volume.State.Target == nil {
		s.t.Fatal("scenario has no published volume")
	}
	return s.volume.State.Target.DeviceURI
}

// connectInitiator connects the host initiator to the volume's target and
// registers the disconnect for teardown.
func (s *scenario) connectInitiator() {
	s.t.Helper()
	uri := s.deviceURI()
	if _, err := nvme.Connect(s.ctx, uri); err != nil {
		s.t.Fatalf("connecting initiator to %s: %v", uri, err)
	}
	s.t.Cleanup(func() {
		if err := nvme.Disconnect(context.Background(), uri); err != nil {
			s.t.Logf("disconnecting initiator: %v", err)
		}
	})
}

// inject applies a fault, failing the scenario on injection errors.
func (s *scenario) inject(spec faults.Spec) {
	s.t.Helper()
	if err := s.injector.Apply(s.ctx, spec); err != nil {
		s.t.Fatalf("%v", err)
	}
}
