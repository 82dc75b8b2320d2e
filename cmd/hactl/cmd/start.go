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
	"k8s.io/klog/v2"

	"github.com/sinhaashish/mayastor-control-plane/pkg/cluster"
)

var startOpts = cluster.DefaultOptions()

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a deployer cluster and wait for the control plane",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cluster.Start(cmd.Context(), startOpts); err != nil {
			return err
		}
		klog.Infof("cluster up with %d io-engines", startOpts.IoEngines)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the deployer cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cluster.Stop(cmd.Context())
	},
}

func init() {
	startCmd.Flags().IntVar(&startOpts.IoEngines, "io-engines", startOpts.IoEngines, "number of io-engine nodes")
	startCmd.Flags().StringVar(&startOpts.CachePeriod, "cache-period", startOpts.CachePeriod, "control plane cache period")
	startCmd.Flags().StringVar(&startOpts.ReconcilePeriod, "reconcile-period", startOpts.ReconcilePeriod, "control plane reconcile period")
	startCmd.Flags().StringVar(&startOpts.FasterRequeue, "faster-requeue", startOpts.FasterRequeue, "HA cluster agent fast requeue period")
	RootCmd.AddCommand(startCmd)
	RootCmd.AddCommand(stopCmd)
}
