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
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Disks owns the flat backing files pools are created on. One scenario owns
// its disks exclusively; Destroy must run on every exit path.
type Disks struct {
	files []string
}

// CreateDisks creates count truncated backing files of size bytes under dir,
// removing any stale file from a previous run first.
func CreateDisks(dir string, count int, size int64) (*Disks, error) {
	d := &Disks{}
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("disk_%d", i))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "removing stale disk file %s", path)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "creating disk file %s", path)
		}
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "truncating %s to %d bytes", path, size)
		}
		if err := f.Close(); err != nil {
			return nil, errors.Wrapf(err, "closing %s", path)
		}
		d.files = append(d.files, path)
	}
	klog.Infof("created %d backing disk files of %d bytes under %s", count, size, dir)
	return d, nil
}

// HostPaths returns the disk paths as seen from inside the io-engine
// containers. The disk dir is mapped into the containers under /host.
func (d *Disks) HostPaths() []string {
	paths := make([]string, len(d.files))
	for i, f := range d.files {
		paths[i] = "/host" + f
	}
	return paths
}

// Destroy removes the backing files. Missing files are not an error so that
// Destroy stays safe to call from deferred cleanup after partial setup.
func (d *Disks) Destroy() error {
	var firstErr error
	for _, f := range d.files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			klog.Warningf("removing disk file %s: %v", f, err)
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "removing disk file %s", f)
			}
		}
	}
	return firstErr
}
