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
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/sinhaashish/mayastor-control-plane/pkg/verify"
)

var (
	verifyNode      string
	verifyDeviceURI string
)

var verifyCmd = &cobra.Command{
	Use:   "verify PREDICATE",
	Short: "Wait for a convergence predicate under its bounded budget",
	Long: `Poll live cluster state until the predicate holds or the budget is
exhausted. PREDICATE is one of path-established (1s x 40) or node-cordoned
(200ms x 10).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		waiter := verify.NewWaiter(apiClient())
		switch args[0] {
		case "path-established":
			if verifyDeviceURI == "" {
				return errors.New("path-established needs --device-uri")
			}
			desc, err := waiter.PathEstablished(cmd.Context(), verifyDeviceURI)
			if err != nil {
				return err
			}
			klog.Infof("path established: %s", desc)
			return nil
		case "node-cordoned":
			if verifyNode == "" {
				return errors.New("node-cordoned needs --node")
			}
			node, err := waiter.NodeCordoned(cmd.Context(), verifyNode)
			if err != nil {
				return err
			}
			klog.Infof("node %s cordoned with labels %v",
				node.ID, node.Spec.CordonDrainState.CordonedState.CordonLabels)
			return nil
		default:
			return errors.Errorf("unknown predicate %q", args[0])
		}
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyNode, "node", "", "node to check")
	verifyCmd.Flags().StringVar(&verifyDeviceURI, "device-uri", "", "volume target device URI")
	RootCmd.AddCommand(verifyCmd)
}
