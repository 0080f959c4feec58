// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"

	"panhunt/internal/parallel"
	"panhunt/internal/preprocessors"
	"panhunt/internal/validators/creditcard"
)

// BuildValidator constructs the card detector for cfg. A nil pattern list
// selects the default brands.
func BuildValidator(cfg ScanConfig) *creditcard.Validator {
	v := creditcard.NewValidator(cfg.Patterns, cfg.Exclusions)
	v.SetObserver(cfg.Observer)
	return v
}

// BuildManager constructs the strategy manager with the default plain
// text, archive and mail strategies.
func BuildManager(cfg ScanConfig) *preprocessors.Manager {
	m := preprocessors.DefaultManager(BuildValidator(cfg), cfg.Table, cfg.Limits, cfg.Mail)
	m.SetObserver(cfg.Observer)
	return m
}

// ResolveWorkers turns the configured worker count into the pool size
// used for itemCount items.
func ResolveWorkers(ctx context.Context, requested, itemCount int) int {
	switch {
	case requested == AutoWorkers:
		return parallel.OptimalWorkerCount(parallel.SampleResources(ctx), parallel.DefaultWorkerLimits(), itemCount)
	case requested < 1:
		return 1
	case itemCount > 0 && requested > itemCount:
		return itemCount
	default:
		return requested
	}
}
