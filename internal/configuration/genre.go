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

package configuration

import (
	"fmt"

	"github.com/cargo-gremlins/gremlins/internal/mutant"
)

var genreEnabledByDefault = map[mutant.Genre]bool{
	mutant.FnValue:        true,
	mutant.BinaryOperator: true,
	mutant.UnaryOperator:  true,
	mutant.MatchArm:       true,
	mutant.MatchArmGuard:  true,
	mutant.StructField:    true,
}

// IsGenreDefaultEnabled returns the default enabled/disabled state of a
// mutation genre, used to seed its command-line flag default.
func IsGenreDefaultEnabled(g mutant.Genre) bool {
	return genreEnabledByDefault[g]
}

var genreFlagName = map[mutant.Genre]string{
	mutant.FnValue:        "fn-value",
	mutant.BinaryOperator: "binary-operator",
	mutant.UnaryOperator:  "unary-operator",
	mutant.MatchArm:       "match-arm",
	mutant.MatchArmGuard:  "match-arm-guard",
	mutant.StructField:    "struct-field",
}

// GenreFlagName returns the kebab-case flag/config segment for a genre,
// e.g. "binary-operator".
func GenreFlagName(g mutant.Genre) string {
	return genreFlagName[g]
}

// GenreEnabledKey returns the configuration key for a genre, e.g.
// "mutants.binary-operator.enabled".
func GenreEnabledKey(g mutant.Genre) string {
	return fmt.Sprintf("mutants.%s.enabled", genreFlagName[g])
}
