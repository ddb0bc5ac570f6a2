// Copyright 2020 Acnodal Inc.
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

package checkpoint

// ShouldRemoteBeActive reports whether the remote node ought to be
// the active one, given each side's most recent checkpoint timestamp
// and the estimated clock skew (local minus remote). The node with
// the more recent checkpoint wins; equal corrected timestamps fall
// back to a byte-wise hostname comparison.
//
// During a split-brain event both nodes run this comparison
// independently and must reach complementary conclusions without
// coordinating, or the cluster ends up with zero or two active
// instances. Strict comparison of corrected timestamps plus the
// byte-wise tie-break (Go string ordering is locale-independent)
// guarantees that.
func ShouldRemoteBeActive(remoteTS int64, localTS int64, skew int64, remoteHost string, localHost string) bool {
	corrected := remoteTS + skew
	return corrected > localTS || (corrected == localTS && remoteHost < localHost)
}
