//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package continual

// mechanismState is the lifecycle of a mechanism.
type mechanismState int

const (
	live mechanismState = iota
	// exhausted mechanisms have consumed their horizon and repeat their last
	// release without spending more budget.
	exhausted
	// inconsistent mechanisms have detected a broken partial sum invariant.
	inconsistent
)

var stateNames = map[mechanismState]string{
	live:         "Live",
	exhausted:    "Exhausted",
	inconsistent: "Inconsistent",
}

func (s mechanismState) String() string {
	return stateNames[s]
}
