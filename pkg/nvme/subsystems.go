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

package nvme

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// PathStateLive is the healthy path state reported by the kernel.
const PathStateLive = "live"

// SubsystemList mirrors the JSON shape of `nvme list-subsys -o json`.
type SubsystemList struct {
	Subsystems []Subsystem `json:"Subsystems"`
}

// Subsystem is one NVMe subsystem with its transport paths.
type Subsystem struct {
	Name  string `json:"Name"`
	NQN   string `json:"NQN"`
	Paths []Path `json:"Paths"`
}

// Path is one controller path to a subsystem.
type Path struct {
	Name      string `json:"Name"`
	Transport string `json:"Transport"`
	Address   string `json:"Address"`
	State     string `json:"State"`
}

// parseSubsystems handles both output shapes of nvme-cli: older releases
// emit a single object, newer ones an array of per-host objects.
func parseSubsystems(data []byte) (*SubsystemList, error) {
	var single SubsystemList
	if err := json.Unmarshal(data, &single); err == nil && single.Subsystems != nil {
		return &single, nil
	}

	var hosts []SubsystemList
	if err := json.Unmarshal(data, &hosts); err != nil {
		return nil, errors.Wrap(err, "unrecognised list-subsys JSON")
	}
	merged := &SubsystemList{}
	for _, h := range hosts {
		merged.Subsystems = append(merged.Subsystems, h.Subsystems...)
	}
	return merged, nil
}
