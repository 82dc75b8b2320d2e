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

package cluster

import (
	"strings"

	"github.com/docker/go-units"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

// Configuration keys, overridable through MAYASTOR_* environment variables
// (e.g. MAYASTOR_DEPLOYER_BIN, MAYASTOR_REST_URL).
const (
	keyDeployerBin = "deployer-bin"
	keyDockerBin   = "docker-bin"
	keyRestURL     = "rest-url"
	keyDiskDir     = "disk-dir"
	keyPoolSize    = "pool-size"
	keyVolumeSize  = "volume-size"
)

func init() {
	viper.SetEnvPrefix("MAYASTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(keyDeployerBin, "deployer")
	viper.SetDefault(keyDockerBin, "docker")
	viper.SetDefault(keyRestURL, "http://localhost:8081")
	viper.SetDefault(keyDiskDir, "/tmp")
	viper.SetDefault(keyPoolSize, "100MiB")
	viper.SetDefault(keyVolumeSize, "20MiB")
}

// DeployerBinary is the cluster deployer binary to shell out to.
func DeployerBinary() string { return viper.GetString(keyDeployerBin) }

// DockerBinary is the container runtime binary.
func DockerBinary() string { return viper.GetString(keyDockerBin) }

// RestURL is the control plane's REST endpoint.
func RestURL() string { return viper.GetString(keyRestURL) }

// DiskDir is where pool backing files are created. It must be the host
// directory that the io-engine containers see under /host.
func DiskDir() string { return viper.GetString(keyDiskDir) }

// PoolSize is the backing file size for each pool, in bytes.
func PoolSize() int64 { return sizeBytes(keyPoolSize) }

// VolumeSize is the size of the volume under test, in bytes.
func VolumeSize() int64 { return sizeBytes(keyVolumeSize) }

func sizeBytes(key string) int64 {
	v := viper.GetString(key)
	n, err := units.RAMInBytes(v)
	if err != nil {
		klog.Fatalf("invalid size %q for %s: %v", v, key, err)
	}
	return n
}
