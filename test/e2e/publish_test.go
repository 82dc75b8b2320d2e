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
	"net/http"
	"strings"
	"testing"

	"github.com/sinhaashish/mayastor-control-plane/pkg/cluster"
	"github.com/sinhaashish/mayastor-control-plane/pkg/openapi"
)

func createUnpublishedVolume(t *testing.T, s *scenario) {
	t.Helper()
	if _, err := s.cluster.API.PutVolume(s.ctx, volumeUUID, openapi.CreateVolumeBody{
		Policy:   openapi.VolumePolicy{SelfHeal: true},
		Replicas: 1,
		Size:     uint64(cluster.VolumeSize()),
	}); err != nil {
		t.Fatalf("creating volume: %v", err)
	}
}

func TestPublishUnpublishedVolume(t *testing.T) {
	s := startScenario(t, cluster.DefaultOptions())
	createUnpublishedVolume(t, s)

	volume, err := s.cluster.API.GetVolume(s.ctx, volumeUUID)
	if err != nil {
		t.Fatalf("fetching volume: %v", err)
	}
	if volume.Spec.Target != nil {
		t.Fatalf("expected an unpublished volume, spec target: %+v", volume.Spec.Target)
	}

	volume, err = s.cluster.API.PutVolumeTarget(s.ctx, volumeUUID, openapi.PublishVolumeBody{
		PublishContext: map[string]string{},
		Protocol:       openapi.ProtocolNvmf,
		Node:           targetNode1,
	})
	if err != nil {
		t.Fatalf("publishing volume: %v", err)
	}
	if volume.Spec.Target == nil || volume.Spec.Target.Protocol != openapi.ProtocolNvmf {
		t.Fatalf("expected an nvmf target in the spec, got: %+v", volume.Spec.Target)
	}
	if volume.State.Target == nil || !strings.Contains(volume.State.Target.DeviceURI, "nvmf://") {
		t.Fatalf("expected an nvmf:// device URI, state: %+v", volume.State)
	}
}

func TestPublishAlreadyPublishedVolume(t *testing.T) {
	s := startScenario(t, cluster.DefaultOptions())
	createUnpublishedVolume(t, s)

	publish := openapi.PublishVolumeBody{
		PublishContext: map[string]string{},
		Protocol:       openapi.ProtocolNvmf,
		Node:           targetNode1,
	}
	if _, err := s.cluster.API.PutVolumeTarget(s.ctx, volumeUUID, publish); err != nil {
		t.Fatalf("publishing volume: %v", err)
	}

	_, err := s.cluster.API.PutVolumeTarget(s.ctx, volumeUUID, publish)
	if err == nil {
		t.Fatal("publishing an already-published volume must fail")
	}
	if !openapi.IsStatus(err, http.StatusPreconditionFailed) {
		t.Fatalf("expected 412 Precondition Failed, got: %v", err)
	}
	if !strings.Contains(err.Error(), "AlreadyPublished") {
		t.Fatalf("expected an AlreadyPublished error body, got: %v", err)
	}
}

func TestUnpublishVolume(t *testing.T) {
	s := startScenario(t, cluster.DefaultOptions())
	createUnpublishedVolume(t, s)

	if _, err := s.cluster.API.PutVolumeTarget(s.ctx, volumeUUID, openapi.PublishVolumeBody{
		PublishContext: map[string]string{},
		Protocol:       openapi.ProtocolNvmf,
		Node:           targetNode1,
	}); err != nil {
		t.Fatalf("publishing volume: %v", err)
	}

	volume, err := s.cluster.API.DeleteVolumeTarget(s.ctx, volumeUUID)
	if err != nil {
		t.Fatalf("unpublishing volume: %v", err)
	}
	if volume.Spec.Target != nil {
		t.Fatalf("expected no spec target after unpublish, got: %+v", volume.Spec.Target)
	}
}
