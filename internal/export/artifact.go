/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export writes session results to disk: raw image artifacts and a
// printable review sheet.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"viewpointgen/internal/imageio"
)

// WriteArtifact writes p to path, creating parent directories. When path has
// no extension the one matching p's MIME type is appended. It returns the path
// written.
func WriteArtifact(path string, p imageio.Part) (string, error) {
	if p.Empty() {
		return "", fmt.Errorf("write artifact: no image data")
	}
	if filepath.Ext(path) == "" {
		path += "." + p.Ext()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, p.Data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// DownloadName is the file name offered for a generated view.
func DownloadName(p imageio.Part) string {
	return "generated-view." + strings.ToLower(p.Ext())
}
