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

/*
cargo-gremlins is a mutation testing lab for Cargo workspaces.
It discovers mutants in Rust source, builds and tests each in an isolated
copy of the workspace, and reports which mutants were caught, missed,
unviable or timed out.

Usage

To run the lab from the root of a Cargo workspace:

	$ cargo-gremlins mutants

To list the mutants that would be tested, without running anything:

	$ cargo-gremlins list


cargo-gremlins reports each scenario outcome as:
 - caught: the mutation made a test fail.
 - missed: the test suite passed despite the mutation; a gap in coverage.
 - unviable: the mutation did not compile.
 - timeout: the tests exceeded their timeout while testing the mutation.

Configuration

cargo-gremlins uses Viper (https://github.com/spf13/viper) for the
configuration.

In particular, the options can be passed in the following ways

 - specific command flags
 - environment variables
 - configuration file

in which each item takes precedence over the following in the list.
The environment variables must be set with the following syntax:

  CARGO_MUTANTS_<KEY NAME>

in which every dot or dash in the key name must be replaced with an
underscore.

Example:

  $ CARGO_MUTANTS_JOBS=4 cargo-gremlins mutants


The configuration must be named
 .cargo/mutants.toml
and must be in the following format:

 jobs = 4
 timeout_multiplier = 2.0
 examine_globs = ["src/**/*.rs"]

Only the keys documented for the mutants run are accepted; any other key
in the file is rejected at startup.
*/
package gremlins
