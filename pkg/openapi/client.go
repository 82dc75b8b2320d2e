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

// Package openapi is a thin typed client for the control plane's v0 REST
// API. Every call is single-shot: a non-2xx response surfaces immediately as
// a StatusError. Retry policy lives with the callers that poll for
// convergence, not here.
package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Client accesses the control-plane REST API at a fixed base URL.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for the given endpoint, e.g.
// "http://localhost:8081".
func NewClient(endpoint string) *Client {
	return &Client{
		base: strings.TrimRight(endpoint, "/") + "/v0",
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// WaitReady blocks until the REST server answers a node listing, retrying
// transport errors with backoff. Used once, right after deployer start; all
// other calls are single-shot.
func (c *Client) WaitReady(ctx context.Context, maxTime time.Duration) error {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.RetryMax = int(maxTime / rc.RetryWaitMax)
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = nil

	req, err := retryablehttp.NewRequest(http.MethodGet, c.base+"/nodes", nil)
	if err != nil {
		return errors.Wrap(err, "building readiness request")
	}
	req = req.WithContext(ctx)
	resp, err := rc.Do(req)
	if err != nil {
		return errors.Wrap(err, "control plane did not become ready")
	}
	defer resp.Body.Close()
	klog.Infof("control plane ready at %s", c.base)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s body", method, path)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return errors.Wrapf(err, "building %s %s", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	klog.V(2).Infof("control plane: %s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "reading %s %s response", method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Method: method, Path: path, Body: string(data)}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

// GetNodes lists all cluster nodes.
func (c *Client) GetNodes(ctx context.Context) ([]Node, error) {
	var nodes []Node
	if err := c.do(ctx, http.MethodGet, "/nodes", nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// GetNode fetches one node, including its labels and cordon state.
func (c *Client) GetNode(ctx context.Context, id string) (*Node, error) {
	var node Node
	if err := c.do(ctx, http.MethodGet, "/nodes/"+url.PathEscape(id), nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// PutNodeLabel attaches a KEY=VALUE label to a node, overwriting any
// existing value for the same key.
func (c *Client) PutNodeLabel(ctx context.Context, id, label string) (*Node, error) {
	var node Node
	path := fmt.Sprintf("/nodes/%s/label/%s?overwrite=true", url.PathEscape(id), url.PathEscape(label))
	if err := c.do(ctx, http.MethodPut, path, nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// DeleteNodeLabel removes the label with the given key from a node. Deleting
// an absent key fails with the control plane's status error.
func (c *Client) DeleteNodeLabel(ctx context.Context, id, key string) (*Node, error) {
	var node Node
	path := fmt.Sprintf("/nodes/%s/label/%s", url.PathEscape(id), url.PathEscape(key))
	if err := c.do(ctx, http.MethodDelete, path, nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// PutNodeCordon cordons a node under the given drain label, making it
// ineligible as a republish target. Completion is asynchronous; callers poll
// the node spec for the applied cordon.
func (c *Client) PutNodeCordon(ctx context.Context, id, label string) (*Node, error) {
	var node Node
	path := fmt.Sprintf("/nodes/%s/cordon/%s", url.PathEscape(id), url.PathEscape(label))
	if err := c.do(ctx, http.MethodPut, path, nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// DeleteNodeCordon removes the cordon with the given drain label.
func (c *Client) DeleteNodeCordon(ctx context.Context, id, label string) (*Node, error) {
	var node Node
	path := fmt.Sprintf("/nodes/%s/cordon/%s", url.PathEscape(id), url.PathEscape(label))
	if err := c.do(ctx, http.MethodDelete, path, nil, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// PutNodePool creates a pool on a node from the given disks.
func (c *Client) PutNodePool(ctx context.Context, node, pool string, body CreatePoolBody) (*Pool, error) {
	var p Pool
	path := fmt.Sprintf("/nodes/%s/pools/%s", url.PathEscape(node), url.PathEscape(pool))
	if err := c.do(ctx, http.MethodPut, path, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PutVolume creates a volume.
func (c *Client) PutVolume(ctx context.Context, uuid string, body CreateVolumeBody) (*Volume, error) {
	var v Volume
	if err := c.do(ctx, http.MethodPut, "/volumes/"+url.PathEscape(uuid), body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVolume fetches a volume, spec and state.
func (c *Client) GetVolume(ctx context.Context, uuid string) (*Volume, error) {
	var v Volume
	if err := c.do(ctx, http.MethodGet, "/volumes/"+url.PathEscape(uuid), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// PutVolumeTarget publishes (or republishes) a volume on a target node. The
// returned state carries the device URI the initiator connects to.
func (c *Client) PutVolumeTarget(ctx context.Context, uuid string, body PublishVolumeBody) (*Volume, error) {
	var v Volume
	if err := c.do(ctx, http.MethodPut, "/volumes/"+url.PathEscape(uuid)+"/target", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DeleteVolumeTarget unpublishes a volume.
func (c *Client) DeleteVolumeTarget(ctx context.Context, uuid string) (*Volume, error) {
	var v Volume
	if err := c.do(ctx, http.MethodDelete, "/volumes/"+url.PathEscape(uuid)+"/target", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
