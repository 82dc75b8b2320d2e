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

// Package nvme drives the host's NVMe-oF initiator through the nvme CLI and
// sysfs. The harness observes failover through this package: after a target
// fault, the volume's subsystem must come back to exactly one live path.
package nvme

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Target identifies an NVMe-oF endpoint parsed from a volume's device URI.
type Target struct {
	Address string
	Port    string
	NQN     string
}

// ParseDeviceURI parses a control-plane device URI of the form
// nvmf://host:port/nqn.2019-05.io.openebs:<uuid>.
func ParseDeviceURI(deviceURI string) (*Target, error) {
	u, err := url.Parse(deviceURI)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing device uri %q", deviceURI)
	}
	if u.Scheme != "nvmf" && u.Scheme != "nvmf+tcp" {
		return nil, errors.Errorf("unsupported device uri scheme %q in %q", u.Scheme, deviceURI)
	}
	nqn := strings.TrimPrefix(u.Path, "/")
	if u.Hostname() == "" || u.Port() == "" || nqn == "" {
		return nil, errors.Errorf("device uri %q is missing host, port or nqn", deviceURI)
	}
	return &Target{Address: u.Hostname(), Port: u.Port(), NQN: nqn}, nil
}

func run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	klog.V(2).Infof("Run: %s %s", name, strings.Join(args, " "))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), errors.Wrapf(err, "%s %s: %s", name, strings.Join(args, " "), string(out))
	}
	return string(out), nil
}

// Connect connects the initiator to the target behind deviceURI and returns
// the target handle used for later observation and disconnect.
func Connect(ctx context.Context, deviceURI string) (*Target, error) {
	t, err := ParseDeviceURI(deviceURI)
	if err != nil {
		return nil, err
	}
	_, err = run(ctx, "nvme", "connect",
		"-t", "tcp",
		"-a", t.Address,
		"-s", t.Port,
		"-n", t.NQN)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", deviceURI)
	}
	klog.Infof("connected initiator to %s", t.NQN)
	return t, nil
}

// Disconnect tears down all controllers for the target's subsystem.
func Disconnect(ctx context.Context, deviceURI string) error {
	t, err := ParseDeviceURI(deviceURI)
	if err != nil {
		return err
	}
	if _, err := run(ctx, "nvme", "disconnect", "-n", t.NQN); err != nil {
		return errors.Wrapf(err, "disconnecting %s", t.NQN)
	}
	return nil
}

// SetReconnectDelay configures how long the initiator waits before retrying
// a lost path to the target's subsystem, in seconds. Applied through sysfs
// to every controller currently bound to the subsystem.
func SetReconnectDelay(ctx context.Context, deviceURI string, delaySec int) error {
	t, err := ParseDeviceURI(deviceURI)
	if err != nil {
		return err
	}
	controllers, err := controllersFor(ctx, t.NQN)
	if err != nil {
		return err
	}
	if len(controllers) == 0 {
		return errors.Errorf("no controllers found for %s", t.NQN)
	}
	for _, ctrl := range controllers {
		path := filepath.Join("/sys/class/nvme", ctrl, "reconnect_delay")
		if err := os.WriteFile(path, []byte(strconv.Itoa(delaySec)), 0644); err != nil {
			return errors.Wrapf(err, "setting reconnect_delay on %s", ctrl)
		}
		klog.Infof("set reconnect_delay=%ds on %s", delaySec, ctrl)
	}
	return nil
}

// controllersFor returns controller names (nvme0, nvme1, ...) bound to the
// subsystem with the given NQN.
func controllersFor(ctx context.Context, nqn string) ([]string, error) {
	desc, err := listSubsystems(ctx)
	if err != nil {
		return nil, err
	}
	var controllers []string
	for _, subsys := range desc.Subsystems {
		if subsys.NQN != nqn {
			continue
		}
		for _, p := range subsys.Paths {
			controllers = append(controllers, p.Name)
		}
	}
	return controllers, nil
}

// ListSubsystems returns the initiator's view of the target's subsystem(s).
// Only subsystems matching the target NQN are returned, so under convergence
// the result is exactly one subsystem with exactly one live path.
func ListSubsystems(ctx context.Context, deviceURI string) (*SubsystemList, error) {
	t, err := ParseDeviceURI(deviceURI)
	if err != nil {
		return nil, err
	}
	desc, err := listSubsystems(ctx)
	if err != nil {
		return nil, err
	}
	matched := &SubsystemList{}
	for _, subsys := range desc.Subsystems {
		if subsys.NQN == t.NQN {
			matched.Subsystems = append(matched.Subsystems, subsys)
		}
	}
	return matched, nil
}

func listSubsystems(ctx context.Context) (*SubsystemList, error) {
	out, err := run(ctx, "nvme", "list-subsys", "-o", "json")
	if err != nil {
		return nil, errors.Wrap(err, "listing nvme subsystems")
	}
	desc, err := parseSubsystems([]byte(out))
	if err != nil {
		return nil, errors.Wrap(err, "parsing nvme list-subsys output")
	}
	return desc, nil
}

// String renders a compact path summary, useful in poll failure messages.
func (l *SubsystemList) String() string {
	var sb strings.Builder
	for i, s := range l.Subsystems {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(s.NQN)
		sb.WriteString(" [")
		for j, p := range s.Paths {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%s", p.Name, p.State))
		}
		sb.WriteString("]")
	}
	if sb.Len() == 0 {
		return "<no subsystems>"
	}
	return sb.String()
}
