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

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"github.com/sinhaashish/mayastor-control-plane/pkg/cluster"
	"github.com/sinhaashish/mayastor-control-plane/pkg/oci"
	"github.com/sinhaashish/mayastor-control-plane/pkg/openapi"
)

// RootCmd represents the hactl base command
var RootCmd = &cobra.Command{
	Use:   "hactl",
	Short: "Drive the HA failover verification harness by hand",
	Long: `hactl starts and stops a disposable control-plane cluster, injects
node and target faults into it, and waits for convergence predicates, using
the same facades the end-to-end scenarios use.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		klog.Errorf("%v", err)
		return err
	}
	return nil
}

func init() {
	RootCmd.PersistentFlags().String("rest-url", "http://localhost:8081", "control plane REST endpoint")
	RootCmd.PersistentFlags().String("docker-bin", "docker", "container runtime binary")
	RootCmd.PersistentFlags().String("deployer-bin", "deployer", "cluster deployer binary")
	for _, flag := range []string{"rest-url", "docker-bin", "deployer-bin"} {
		if err := viper.BindPFlag(flag, RootCmd.PersistentFlags().Lookup(flag)); err != nil {
			klog.Fatalf("binding --%s: %v", flag, err)
		}
	}
}

func apiClient() *openapi.Client {
	return openapi.NewClient(cluster.RestURL())
}

func runtime() *oci.Runtime {
	return oci.New(cluster.DockerBinary())
}
