/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic at the process boundary into a report file and
// a best-effort rescue of the user's work before exiting.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "viewpointgen/internal/log"
	"viewpointgen/internal/telemetry"
	"viewpointgen/internal/version"
)

// ReportsDirName is the subdirectory of the data dir reports land in.
const ReportsDirName = "crash"

// exitFn is swapped out by tests.
var exitFn = os.Exit

// Rescuer saves whatever in-memory work can be saved into dir and returns a
// short description (usually a path) of what it wrote.
type Rescuer interface {
	Rescue(dir string) (string, error)
}

// Target says where a crash report goes and what to rescue. A zero Target
// writes to the temp dir and rescues nothing.
type Target struct {
	DataDir string
	Rescuer Rescuer
	// Session is copied into the report header when set.
	Session string
}

// Recover must be deferred directly: defer crash.Recover(target).
func Recover(t Target) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	dir := t.reportDir()
	reportPath, err := writeReport(dir, t.Session, r, stack)
	if err != nil {
		l.Error("crash report not written", slog.Any("err", err))
	}
	if t.Rescuer != nil {
		if what, err := t.Rescuer.Rescue(dir); err != nil {
			l.Error("rescue failed", slog.Any("err", err))
		} else {
			l.Info("work rescued", slog.String("path", what))
		}
	}

	fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func (t Target) reportDir() string {
	if t.DataDir == "" {
		return os.TempDir()
	}
	dir := filepath.Join(t.DataDir, ReportsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.TempDir()
	}
	return dir
}

func writeReport(dir, session string, panicVal any, stack []byte) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405")))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Viewpoint Generator Crash Report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if session != "" {
		fmt.Fprintf(&buf, "Session: %s\n", session)
	}
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", stack)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	// opt-in only; a no-op otherwise
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
