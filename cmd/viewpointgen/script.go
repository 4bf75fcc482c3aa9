/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"viewpointgen/internal/mask"
	"viewpointgen/internal/vector"
)

// strokeScript is a recorded editing session: pointer events in display
// coordinates, each carrying the display size at the time it happened.
//
//	{"events": [
//	  {"op": "brush", "size": 12},
//	  {"op": "begin", "x": 10, "y": 20, "w": 400, "h": 300},
//	  {"op": "extend", "x": 40, "y": 20, "w": 400, "h": 300},
//	  {"op": "commit"},
//	  {"op": "undo"}
//	]}
type strokeScript struct {
	Events []scriptEvent `json:"events"`
}

type scriptEvent struct {
	Op   string  `json:"op"`
	X    float32 `json:"x,omitempty"`
	Y    float32 `json:"y,omitempty"`
	W    float32 `json:"w,omitempty"`
	H    float32 `json:"h,omitempty"`
	Size float64 `json:"size,omitempty"`
}

func readScript(r io.Reader) (strokeScript, error) {
	var s strokeScript
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return s, fmt.Errorf("read stroke script: %w", err)
	}
	for i, ev := range s.Events {
		switch ev.Op {
		case "begin", "extend":
			// Without a display size the editor would map the event 1:1.
			if !(ev.W > 0) || !(ev.H > 0) {
				return s, fmt.Errorf("read stroke script: event %d: %s needs a positive w and h, got %vx%v", i, ev.Op, ev.W, ev.H)
			}
		case "commit", "undo", "brush":
		default:
			return s, fmt.Errorf("read stroke script: event %d: unknown op %q", i, ev.Op)
		}
	}
	return s, nil
}

// replay feeds the events to ed in order. Out-of-order events are handed to
// the editor as they are; it ignores what does not apply.
func (s strokeScript) replay(ed *mask.Editor) {
	for _, ev := range s.Events {
		p := mask.Pointer{Pos: vector.Pt{X: ev.X, Y: ev.Y}, Display: vector.Size{W: ev.W, H: ev.H}}
		switch ev.Op {
		case "begin":
			ed.BeginStroke(p)
		case "extend":
			ed.ExtendStroke(p)
		case "commit":
			ed.CommitStroke()
		case "undo":
			ed.Undo()
		case "brush":
			ed.SetBrushSize(ev.Size)
		}
	}
}
