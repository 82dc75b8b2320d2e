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

package openapi

// Protocol is the share protocol a volume target is exported over.
type Protocol string

// ProtocolNvmf is the only protocol exercised by the harness.
const ProtocolNvmf Protocol = "nvmf"

// Node is a cluster node as reported by the control plane.
type Node struct {
	ID    string    `json:"id"`
	Spec  NodeSpec  `json:"spec"`
	State NodeState `json:"state"`
}

// NodeSpec is the declared node state, including labels and cordoning.
type NodeSpec struct {
	ID               string            `json:"id"`
	GrpcEndpoint     string            `json:"grpcEndpoint"`
	Labels           map[string]string `json:"labels,omitempty"`
	CordonDrainState *CordonDrainState `json:"cordondrainstate,omitempty"`
}

// CordonDrainState is a one-of: exactly one of the fields is set depending on
// where the node is in the cordon/drain lifecycle.
type CordonDrainState struct {
	CordonedState *CordonState `json:"cordonedstate,omitempty"`
	DrainingState *DrainState  `json:"drainingstate,omitempty"`
	DrainedState  *DrainState  `json:"drainedstate,omitempty"`
}

// CordonState lists the labels a node was cordoned with.
type CordonState struct {
	CordonLabels []string `json:"cordonlabels"`
}

// DrainState lists cordon and drain labels for a draining or drained node.
type DrainState struct {
	CordonLabels []string `json:"cordonlabels"`
	DrainLabels  []string `json:"drainlabels"`
}

// Cordoned reports whether the node spec carries an applied cordon.
func (s NodeSpec) Cordoned() bool {
	return s.CordonDrainState != nil && s.CordonDrainState.CordonedState != nil
}

// NodeState is the observed node state.
type NodeState struct {
	ID           string `json:"id"`
	GrpcEndpoint string `json:"grpcEndpoint"`
	Status       string `json:"status"`
}

// CreatePoolBody requests pool creation over a set of disk devices.
type CreatePoolBody struct {
	Disks []string `json:"disks"`
}

// Pool is a storage pool on a node.
type Pool struct {
	ID    string     `json:"id"`
	Spec  *PoolSpec  `json:"spec,omitempty"`
	State *PoolState `json:"state,omitempty"`
}

// PoolSpec is the declared pool configuration.
type PoolSpec struct {
	ID     string            `json:"id"`
	Node   string            `json:"node"`
	Disks  []string          `json:"disks"`
	Labels map[string]string `json:"labels,omitempty"`
}

// PoolState is the observed pool state.
type PoolState struct {
	ID       string `json:"id"`
	Node     string `json:"node"`
	Status   string `json:"status"`
	Capacity uint64 `json:"capacity"`
	Used     uint64 `json:"used"`
}

// VolumePolicy carries the volume's replication policy knobs.
type VolumePolicy struct {
	SelfHeal bool `json:"self_heal"`
}

// CreateVolumeBody requests creation of a replicated volume.
type CreateVolumeBody struct {
	Policy   VolumePolicy `json:"policy"`
	Replicas int          `json:"replicas"`
	Size     uint64       `json:"size"`
	Thin     bool         `json:"thin"`
}

// PublishVolumeBody binds a volume to a target node over a protocol.
type PublishVolumeBody struct {
	PublishContext map[string]string `json:"publish_context"`
	Protocol       Protocol          `json:"protocol"`
	Node           string            `json:"node,omitempty"`
}

// Volume is a replicated volume, spec plus observed state.
type Volume struct {
	Spec  VolumeSpec  `json:"spec"`
	State VolumeState `json:"state"`
}

// VolumeSpec is the declared volume configuration.
type VolumeSpec struct {
	UUID        string            `json:"uuid"`
	Size        uint64            `json:"size"`
	NumReplicas int               `json:"num_replicas"`
	Policy      VolumePolicy      `json:"policy"`
	Target      *VolumeTargetSpec `json:"target,omitempty"`
}

// VolumeTargetSpec is the requested target binding.
type VolumeTargetSpec struct {
	Node     string   `json:"node"`
	Protocol Protocol `json:"protocol"`
}

// VolumeState is the observed volume state. Target is nil for an
// unpublished volume.
type VolumeState struct {
	UUID   string      `json:"uuid"`
	Size   uint64      `json:"size"`
	Status string      `json:"status"`
	Target *NexusState `json:"target,omitempty"`
}

// NexusState describes the exported target, including the device URI the
// initiator connects to.
type NexusState struct {
	Node      string `json:"node"`
	DeviceURI string `json:"deviceUri"`
	State     string `json:"state"`
}
