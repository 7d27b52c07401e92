/*
 * Copyright 2022 The Gremlins Authors
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

package cmd

import (
	"context"
	"fmt"

	"github.com/cargo-gremlins/gremlins/internal/cargoworkspace"
	"github.com/cargo-gremlins/gremlins/internal/configuration"
	"github.com/cargo-gremlins/gremlins/internal/discovery"
	"github.com/cargo-gremlins/gremlins/internal/filter"
	"github.com/cargo-gremlins/gremlins/internal/log"
	"github.com/cargo-gremlins/gremlins/internal/mutant"
	"github.com/cargo-gremlins/gremlins/internal/rustparse"
	"github.com/cargo-gremlins/gremlins/internal/source"
)

// discoverMutants opens the cargo workspace rooted at path, selects its
// packages, and runs Component C over every reachable source file,
// returning the filtered candidate list alongside the resolved workspace.
func discoverMutants(ctx context.Context, path string, explicitPackages []string, filterOpts filter.Options) ([]mutant.Mutant, *cargoworkspace.Workspace, error) {
	ws, err := cargoworkspace.Open(ctx, path, "")
	if err != nil {
		return nil, nil, fmt.Errorf("resolving cargo workspace: %w", err)
	}

	packages, warnings := ws.SelectPackages(path, explicitPackages)
	for _, w := range warnings {
		log.Infof("warning: %s\n", w)
	}

	discOpts := discovery.Options{
		SkipCalls:  configuration.GetStringSlice(configuration.SkipCallsKey),
		ErrorExprs: configuration.GetStringSlice(configuration.ErrorValuesKey),
	}

	include := configuration.GetStringSlice(configuration.ExamineGlobsKey)
	exclude := configuration.GetStringSlice(configuration.ExcludeGlobsKey)

	var all []mutant.Mutant
	for _, pkg := range packages {
		files, fileWarnings, err := source.Discover(ws.Root, pkg, include, exclude)
		if err != nil {
			return nil, nil, fmt.Errorf("discovering sources for package %s: %w", pkg.Name, err)
		}
		for _, w := range fileWarnings {
			log.Infof("warning: %s\n", w)
		}

		for _, sf := range files {
			tree, err := rustparse.Parse([]byte(sf.Code))
			if err != nil {
				return nil, nil, fmt.Errorf("parsing %s: %w", sf.TreeRelativePath, err)
			}
			found := discovery.Discover(tree, sf, discOpts)
			tree.Close()
			all = append(all, found...)
		}
	}

	byGenre := enabledGenres()
	kept := all[:0]
	for _, m := range all {
		if byGenre[m.Genre] {
			kept = append(kept, m)
		}
	}

	filtered, err := filter.Apply(kept, filterOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("applying filters: %w", err)
	}

	return filtered, ws, nil
}
