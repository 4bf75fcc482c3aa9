/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Viewport relates an image shown at a responsive display size to its native
// pixel grid. Aspect ratio is preserved by the layout, so a single factor
// (native width / display width) maps both axes.
type Viewport struct {
	Native  Size
	Display Size
}

// Scale returns native/display. A viewport without a usable display size maps 1:1.
func (v Viewport) Scale() float32 {
	if !(v.Display.W > 0) || !(v.Native.W > 0) || !finite(v.Display.W) {
		return 1
	}
	return v.Native.W / v.Display.W
}

// Transform returns the display to native transform.
func (v Viewport) Transform() Affine2D {
	s := v.Scale()
	return Scale(s, s)
}

// ToNative maps a display-space point onto the native pixel grid.
func (v Viewport) ToNative(p Pt) Pt { return v.Transform().Apply(p) }

// ToDisplay maps a native point back into display space.
func (v Viewport) ToDisplay(p Pt) Pt {
	s := v.Scale()
	return Pt{p.X / s, p.Y / s}
}

// LengthToNative converts a display-space length such as a brush radius.
func (v Viewport) LengthToNative(l float32) float32 { return l * v.Scale() }

// FitSize returns the largest size with native's aspect ratio that fits in box.
// An empty box or native yields native unchanged.
func FitSize(native, box Size) Size {
	if native.Empty() || box.Empty() {
		return native
	}
	s := min(box.W/native.W, box.H/native.H)
	return Size{W: native.W * s, H: native.H * s}
}
