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

	"github.com/sinhaashish/mayastor-control-plane/pkg/faults"
)

var faultSpec faults.Spec

var faultCmd = &cobra.Command{
	Use:   "fault KIND",
	Short: "Inject a fault into the running cluster",
	Long: `Inject one fault and return as soon as it is applied. KIND is one of
cordon, uncordon, stop-target, restart-target, set-reconnect-delay.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		faultSpec.Kind = faults.Kind(args[0])
		switch faultSpec.Kind {
		case faults.Cordon, faults.Uncordon:
			if faultSpec.Node == "" || faultSpec.DrainLabel == "" {
				return errors.New("cordon faults need --node and --drain-label")
			}
		case faults.StopTarget, faults.RestartTarget:
			if faultSpec.Node == "" {
				return errors.New("target faults need --node")
			}
		case faults.SetReconnectDelay:
			if faultSpec.DeviceURI == "" || faultSpec.ReconnectDelaySec <= 0 {
				return errors.New("set-reconnect-delay needs --device-uri and --delay")
			}
		default:
			return errors.Errorf("unknown fault kind %q", args[0])
		}
		injector := faults.NewInjector(apiClient(), runtime())
		return injector.Apply(cmd.Context(), faultSpec)
	},
}

func init() {
	faultCmd.Flags().StringVar(&faultSpec.Node, "node", "", "node the fault acts on")
	faultCmd.Flags().StringVar(&faultSpec.DrainLabel, "drain-label", "d", "cordon drain label")
	faultCmd.Flags().StringVar(&faultSpec.DeviceURI, "device-uri", "", "volume target device URI")
	faultCmd.Flags().IntVar(&faultSpec.ReconnectDelaySec, "delay", 0, "initiator reconnect delay in seconds")
	RootCmd.AddCommand(faultCmd)
}
