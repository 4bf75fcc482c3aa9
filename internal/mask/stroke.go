/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package mask

import (
	"slices"

	"viewpointgen/internal/vector"
)

// Pointer is one input event: a position in display coordinates together with
// the display size of the canvas sampled when the event was dispatched.
type Pointer struct {
	Pos     vector.Pt
	Display vector.Size
}

// Stroke is one continuous drag. Points and Radius are in native image pixels;
// they were normalized from display space when captured.
type Stroke struct {
	Points []vector.Pt
	Radius float32
}

// Clone returns a deep copy.
func (s Stroke) Clone() Stroke {
	return Stroke{Points: slices.Clone(s.Points), Radius: s.Radius}
}

// Bounds is the area the stroke can paint, including the brush radius.
func (s Stroke) Bounds() vector.Rect {
	if len(s.Points) == 0 {
		return vector.Rect{}
	}
	return vector.Bounds(s.Points).Inset(-s.Radius, -s.Radius)
}
