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
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"viewpointgen/internal/config"
	"viewpointgen/internal/crash"
	"viewpointgen/internal/export"
	"viewpointgen/internal/generate"
	"viewpointgen/internal/i18n"
	"viewpointgen/internal/imageio"
	applog "viewpointgen/internal/log"
	"viewpointgen/internal/mask"
	"viewpointgen/internal/session"
	"viewpointgen/internal/storage"
	"viewpointgen/internal/telemetry"
	"viewpointgen/internal/ui"
	"viewpointgen/internal/version"
)

// loadConfig reads the user config and re-initializes logging from it.
func loadConfig() (config.AppConfig, string, error) {
	cfg, key, err := config.Load()
	if err != nil {
		return cfg, "", err
	}
	applog.Init(applog.FromConfig(cfg.Logging))
	return cfg, key, nil
}

func usage() {
	fmt.Println("Architectural Viewpoint Generator")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  viewpointgen version|-v|--version                         Show version")
	fmt.Println("  viewpointgen mask <image> <script.json> <out.png> [sheet.pdf]  Replay a stroke script and write the mask")
	fmt.Println("  viewpointgen generate [flags] <image>                     Generate a new view (see -h)")
	fmt.Println("  viewpointgen history export|import <file>                 Move the session history to or from a JSON manifest")
	fmt.Println("  viewpointgen ui [<image>]                                 Launch desktop UI (build with -tags fyne for full UI)")
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", session.UserMessage(i18n.FromEnv(""), err))
	os.Exit(1)
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover(crash.Target{})

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Architectural Viewpoint Generator")
			fmt.Println(version.String())
			return
		case "mask":
			if len(args) < 5 {
				fmt.Println("mask requires <image> <script.json> <out.png>")
				usage()
				os.Exit(2)
			}
			sheet := ""
			if len(args) > 5 {
				sheet = args[5]
			}
			out, n, err := runMask(args[2], args[3], args[4], sheet)
			if err != nil {
				fail(l, "mask failed", err)
			}
			fmt.Printf("Wrote %s (%d strokes)\n", out, n)
			return
		case "generate":
			if err := runGenerate(args[2:]); err != nil {
				fail(l, "generate failed", err)
			}
			return
		case "history":
			if len(args) < 4 || (args[2] != "export" && args[2] != "import") {
				fmt.Println("history requires export|import and <file>")
				usage()
				os.Exit(2)
			}
			if err := runHistory(args[2], args[3]); err != nil {
				fail(l, "history failed", err)
			}
			return
		case "ui":
			var img string
			if len(args) >= 3 {
				img = args[2]
			}
			if err := ui.Run(img); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

// runMask replays a stroke script over image and writes the mask artifact,
// plus a review sheet when sheetPath is set. It returns the written path and
// the number of committed strokes.
func runMask(imagePath, scriptPath, outPath, sheetPath string) (string, int, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return "", 0, err
	}
	bg, err := imageio.ReadFile(imagePath)
	if err != nil {
		return "", 0, err
	}
	f, err := os.Open(scriptPath)
	if err != nil {
		return "", 0, err
	}
	script, err := readScript(f)
	_ = f.Close()
	if err != nil {
		return "", 0, err
	}

	var artifact imageio.Part
	opts := mask.OptionsFromConfig(cfg.Mask)
	opts.OnSave = func(p imageio.Part) { artifact = p }
	ed, err := mask.Open(bg, opts)
	if err != nil {
		return "", 0, err
	}
	script.replay(ed)
	n := ed.StrokeCount()
	preview, perr := imageio.EncodePNG(ed.Composite())
	if _, err := ed.Save(); err != nil {
		return "", 0, err
	}
	out, err := export.WriteArtifact(outPath, artifact)
	if err != nil {
		return "", 0, err
	}
	if sheetPath != "" {
		if perr != nil {
			return out, n, perr
		}
		err = export.WriteReviewSheet(sheetPath, export.ReviewSheet{
			Title:    "Mask review",
			Original: bg,
			Preview:  preview,
			Mask:     artifact,
		})
		if err != nil {
			return out, n, err
		}
	}
	return out, n, nil
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	season := fs.String("season", generate.Summer.String(), "Winter, Spring, Summer or Autumn")
	tod := fs.String("time", generate.Daytime.String(), "Dawn, Daytime, Dusk or Night")
	prompt := fs.String("prompt", "", "additional details")
	maskPath := fs.String("mask", "", "mask PNG restricting the change")
	maskPrompt := fs.String("mask-prompt", "", "change to apply inside the mask (required with -mask)")
	out := fs.String("out", "", "output path (default generated-view.<ext>)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("generate requires exactly one <image>")
	}

	cfg, apiKey, err := loadConfig()
	if err != nil {
		return err
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set %s or store one in the keychain", config.EnvAPIKey)
	}
	telemetry.SetDefault(telemetry.New(telemetry.FromEnv().WithOptIn(cfg.General.TelemetryOptIn)))
	defer telemetry.Default().Close()

	s, err := generate.ParseSeason(*season)
	if err != nil {
		return err
	}
	t, err := generate.ParseTimeOfDay(*tod)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	gen, err := generate.NewGemini(ctx, apiKey, cfg.Generator.Model, cfg.Generator.Timeout())
	if err != nil {
		return err
	}
	sess := session.New(store, gen)
	ctx = sess.Context(ctx)

	img, err := imageio.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := sess.Upload(ctx, img); err != nil {
		return err
	}
	if *maskPath != "" {
		m, err := imageio.ReadFile(*maskPath)
		if err != nil {
			return err
		}
		sess.SaveMask(m)
		sess.SetMaskPrompt(*maskPrompt)
	}
	sess.SetScene(s, t)
	sess.SetCustomPrompt(*prompt)

	it, err := sess.Generate(ctx)
	if err != nil {
		return err
	}
	path := *out
	if strings.TrimSpace(path) == "" {
		path = export.DownloadName(it.Image)
	}
	written, err := export.WriteArtifact(path, it.Image)
	if err != nil {
		return err
	}
	telemetry.Default().Flush(ctx)
	fmt.Println("Wrote", written)
	fmt.Println("Prompt:", it.Prompt)
	return nil
}

func runHistory(op, path string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	var n int
	switch op {
	case "export":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		n, err = storage.ExportManifest(ctx, store, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d items to %s\n", n, path)
	case "import":
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		n, err = storage.ImportManifest(ctx, store, f)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d items from %s\n", n, path)
	}
	return nil
}
