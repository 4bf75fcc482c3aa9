//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

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
	"viewpointgen/internal/version"
)

var uploadExts = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp", ".tif", ".tiff"}

// Run starts the desktop UI. A non-empty imagePath is uploaded on start.
func Run(imagePath string) error {
	cfg, apiKey, err := config.Load()
	if err != nil {
		return err
	}
	applog.Init(applog.FromConfig(cfg.Logging))
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	tc := telemetry.FromEnv().WithOptIn(cfg.General.TelemetryOptIn)
	telemetry.SetDefault(telemetry.New(tc))
	defer telemetry.Default().Close()

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	sess := session.New(store, nil)
	ctx = sess.Context(ctx)
	if apiKey != "" {
		gen, gerr := generate.NewGemini(ctx, apiKey, cfg.Generator.Model, cfg.Generator.Timeout())
		if gerr != nil {
			l.Warn("generator unavailable", slog.Any("err", gerr))
		} else {
			sess.SetGenerator(gen)
		}
	}
	defer crash.Recover(crash.Target{Rescuer: sess, Session: sess.ID()})

	tr := i18n.Translator{Lang: i18n.FromEnv(cfg.General.Language)}
	maskOpts := mask.OptionsFromConfig(cfg.Mask)

	fyneApp := app.NewWithID("viewpointgen")
	w := fyneApp.NewWindow(tr.T(i18n.KeyAppTitle))
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 820)
	if winW < 900 {
		winW = 900
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel(tr.T(i18n.KeyClickToUpload))

	// Input column
	original := canvas.NewImageFromImage(nil)
	original.FillMode = canvas.ImageFillContain
	original.SetMinSize(fyne.NewSize(360, 240))

	maskPrompt := widget.NewMultiLineEntry()
	maskPrompt.SetPlaceHolder(tr.T(i18n.KeyMaskInputPlaceholder))
	maskPrompt.OnChanged = sess.SetMaskPrompt
	maskBox := container.NewVBox(widget.NewLabel(tr.T(i18n.KeyMaskInputLabel)), maskPrompt)
	maskBox.Hide()

	editBtn := widget.NewButton(tr.T(i18n.KeyEditSpecificArea), nil)
	clearMaskBtn := widget.NewButton(tr.T(i18n.KeyClearMask), nil)
	editBtn.Disable()
	clearMaskBtn.Hide()

	// Scene
	seasonLabel := widget.NewLabel("")
	timeLabel := widget.NewLabel("")
	seasonSlider := widget.NewSlider(0, float64(len(generate.Seasons())-1))
	seasonSlider.Step = 1
	timeSlider := widget.NewSlider(0, float64(len(generate.Times())-1))
	timeSlider.Step = 1
	applyScene := func() {
		s := generate.Seasons()[int(seasonSlider.Value)]
		td := generate.Times()[int(timeSlider.Value)]
		seasonLabel.SetText(tr.T(i18n.KeyAdjustSeason) + ": " + i18n.Label(tr.Lang, s.String()))
		timeLabel.SetText(tr.T(i18n.KeyAdjustTime) + ": " + i18n.Label(tr.Lang, td.String()))
		sess.SetScene(s, td)
	}
	seasonSlider.OnChanged = func(float64) { applyScene() }
	timeSlider.OnChanged = func(float64) { applyScene() }
	seasonSlider.SetValue(float64(generate.Summer))
	timeSlider.SetValue(float64(generate.Daytime))
	applyScene()

	custom := widget.NewMultiLineEntry()
	custom.SetPlaceHolder(tr.T(i18n.KeyAdditionalDetailsPlaceholder))
	custom.OnChanged = sess.SetCustomPrompt

	generateBtn := widget.NewButton(tr.T(i18n.KeyGenerateNewView), nil)
	generateBtn.Importance = widget.HighImportance
	generateBtn.Disable()
	progress := widget.NewProgressBarInfinite()
	progress.Hide()

	// Result column
	result := canvas.NewImageFromImage(nil)
	result.FillMode = canvas.ImageFillContain
	result.SetMinSize(fyne.NewSize(480, 320))
	promptText := widget.NewLabel("")
	promptText.Wrapping = fyne.TextWrapWord
	useBtn := widget.NewButton(tr.T(i18n.KeyUseAsInput), nil)
	downloadBtn := widget.NewButton(tr.T(i18n.KeyDownloadImage), nil)
	copyBtn := widget.NewButton(tr.T(i18n.KeyCopyPrompt), nil)
	sheetBtn := widget.NewButton(tr.T(i18n.KeyExportReviewSheet), nil)
	resultActions := container.NewHBox(useBtn, downloadBtn, copyBtn, sheetBtn)
	resultActions.Hide()

	showError := func(err error) {
		l.Warn("action failed", slog.Any("err", err))
		dialog.ShowError(errors.New(session.UserMessage(tr.Lang, err)), w)
	}

	setImage := func(c *canvas.Image, p imageio.Part) {
		img, err := imageio.Decode(p)
		if err != nil {
			c.Image = nil
		} else {
			c.Image = img
		}
		c.Refresh()
	}

	// History sidebar
	var items []storage.Item
	historyList := widget.NewList(
		func() int { return len(items) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < 0 || int(i) >= len(items) {
				return
			}
			it := items[i]
			text := it.Prompt
			if it.IsOriginal {
				text = tr.T(i18n.KeyOriginal)
			}
			o.(*widget.Label).SetText(it.CreatedAt.Format("15:04:05") + "  " + ellipsize(text, 48))
		},
	)
	refreshHistory := func() {
		var err error
		items, err = sess.History(ctx)
		if err != nil {
			l.Warn("list history", slog.Any("err", err))
		}
		historyList.UnselectAll()
		historyList.Refresh()
	}
	clearHistoryBtn := widget.NewButton(tr.T(i18n.KeyClearHistory), func() {
		if err := sess.ClearHistory(ctx); err != nil {
			showError(err)
			return
		}
		refreshHistory()
	})

	showResult := func(it storage.Item) {
		setImage(result, it.Image)
		promptText.SetText(it.Prompt)
		resultActions.Show()
		useBtn.Enable()
		if it.IsOriginal {
			useBtn.Disable()
		}
	}
	historyList.OnSelected = func(id widget.ListItemID) {
		if id < 0 || int(id) >= len(items) {
			return
		}
		it, err := sess.SelectHistory(ctx, items[id].ID)
		if err != nil {
			showError(err)
			return
		}
		showResult(it)
	}

	syncMask := func() {
		if _, ok := sess.Mask(); ok {
			maskBox.Show()
			clearMaskBtn.Show()
		} else {
			maskBox.Hide()
			clearMaskBtn.Hide()
			maskPrompt.SetText("")
		}
	}

	showInput := func() {
		orig, ok := sess.Original()
		if !ok {
			return
		}
		setImage(original, orig)
		editBtn.Enable()
		generateBtn.Enable()
		syncMask()
	}

	upload := func(p imageio.Part) {
		if err := sess.Upload(ctx, p); err != nil {
			showError(err)
			return
		}
		result.Image = nil
		result.Refresh()
		resultActions.Hide()
		showInput()
		refreshHistory()
		status.SetText(tr.T(i18n.KeyOriginalImageTitle))
	}

	uploadBtn := widget.NewButton(tr.T(i18n.KeyUploadTitle), func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				showError(err)
				return
			}
			if rc == nil {
				return
			}
			defer rc.Close()
			data, rerr := io.ReadAll(rc)
			if rerr != nil {
				showError(rerr)
				return
			}
			upload(imageio.Part{Data: data, MIMEType: imageio.Sniff(data, rc.URI().Extension())})
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter(uploadExts))
		fd.Show()
	})
	w.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		if len(uris) == 0 {
			return
		}
		p, err := imageio.ReadFile(uris[0].Path())
		if err != nil {
			showError(err)
			return
		}
		upload(p)
	})

	editBtn.OnTapped = func() {
		openMaskEditor(fyneApp, tr, sess, maskOpts, func() {
			syncMask()
			status.SetText(tr.T(i18n.KeyTargetedChange))
		}, showError)
	}
	clearMaskBtn.OnTapped = func() {
		sess.ClearMask()
		syncMask()
	}

	generateBtn.OnTapped = func() {
		if sess.Busy() {
			return
		}
		generateBtn.Disable()
		progress.Show()
		progress.Start()
		status.SetText(tr.T(i18n.KeyLoaderText))
		go func() {
			it, err := sess.Generate(ctx)
			fyne.Do(func() {
				progress.Stop()
				progress.Hide()
				generateBtn.Enable()
				if err != nil {
					status.SetText(tr.T(i18n.KeyErrorTitle))
					showError(err)
					return
				}
				status.SetText(tr.T(i18n.KeyGeneratedView))
				showResult(it)
				refreshHistory()
			})
		}()
	}

	useBtn.OnTapped = func() {
		if err := sess.UseAsInput(); err != nil {
			showError(err)
			return
		}
		showInput()
	}
	downloadBtn.OnTapped = func() {
		cur, ok := sess.Current()
		if !ok {
			return
		}
		fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil {
				showError(err)
				return
			}
			if wc == nil {
				return
			}
			path := wc.URI().Path()
			_ = wc.Close()
			if _, werr := export.WriteArtifact(path, cur.Image); werr != nil {
				showError(werr)
			}
		}, w)
		fd.SetFileName(export.DownloadName(cur.Image))
		fd.Show()
	}
	copyBtn.OnTapped = func() {
		if cur, ok := sess.Current(); ok {
			w.Clipboard().SetContent(cur.Prompt)
		}
	}
	sheetBtn.OnTapped = func() {
		fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil {
				showError(err)
				return
			}
			if wc == nil {
				return
			}
			path := wc.URI().Path()
			_ = wc.Close()
			sheet, serr := reviewSheet(sess, maskOpts)
			if serr == nil {
				serr = export.WriteReviewSheet(path, sheet)
			}
			if serr != nil {
				showError(serr)
			}
		}, w)
		fd.SetFileName("review-sheet.pdf")
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".pdf"}))
		fd.Show()
	}

	left := container.NewVBox(
		widget.NewLabelWithStyle(tr.T(i18n.KeyOriginalImageTitle), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		uploadBtn,
		widget.NewLabel(tr.T(i18n.KeyFileTypes)),
		original,
		container.NewHBox(editBtn, clearMaskBtn),
		maskBox,
		widget.NewSeparator(),
		widget.NewLabelWithStyle(tr.T(i18n.KeySetSceneTitle), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		seasonLabel, seasonSlider,
		timeLabel, timeSlider,
		widget.NewLabel(tr.T(i18n.KeyAdditionalDetailsLabel)), custom,
		generateBtn, progress,
	)
	center := container.NewBorder(
		widget.NewLabelWithStyle(tr.T(i18n.KeyViewResultsTitle), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewVBox(resultActions, promptText),
		nil, nil, result,
	)
	right := container.NewBorder(
		widget.NewLabelWithStyle(tr.T(i18n.KeyHistory), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		clearHistoryBtn, nil, nil, historyList,
	)
	split := container.NewHSplit(container.NewVScroll(left), container.NewHSplit(center, right))
	split.Offset = 0.32
	w.SetContent(container.NewBorder(nil, status, nil, nil, split))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	if imagePath != "" {
		if p, err := imageio.ReadFile(imagePath); err != nil {
			l.Warn("initial image", slog.String("path", imagePath), slog.Any("err", err))
		} else {
			upload(p)
		}
	}

	w.ShowAndRun()
	telemetry.Default().Flush(context.Background())
	return nil
}

// openMaskEditor shows the brush editor over the current input in its own
// window. onSaved runs on the UI goroutine after the session mask is stored.
func openMaskEditor(a fyne.App, tr i18n.Translator, sess *session.Session, opts mask.Options, onSaved func(), onErr func(error)) {
	win := a.NewWindow(tr.T(i18n.KeyMaskEditorTitle))
	opts.OnSave = func(imageio.Part) { onSaved() }
	opts.OnClose = func() { win.Close() }
	ed, err := sess.OpenMaskEditor(opts)
	if err != nil {
		win.Close()
		onErr(err)
		return
	}
	view := NewMaskView(ed)

	lo, hi := ed.BrushRange()
	brushLabel := widget.NewLabel("")
	brush := widget.NewSlider(lo, hi)
	brush.Step = 1
	brush.OnChanged = func(v float64) {
		view.SetBrushSize(v)
		brushLabel.SetText(fmt.Sprintf("%s: %.0f", tr.T(i18n.KeyBrushSize), ed.BrushSize()))
	}
	brush.SetValue(ed.BrushSize())

	undoBtn := widget.NewButton(tr.T(i18n.KeyUndo), view.Undo)
	syncUndo := func() {
		if ed.StrokeCount() == 0 {
			undoBtn.Disable()
		} else {
			undoBtn.Enable()
		}
	}
	view.OnChange = syncUndo
	syncUndo()

	cancelBtn := widget.NewButton(tr.T(i18n.KeyCancel), ed.Cancel)
	saveBtn := widget.NewButton(tr.T(i18n.KeySaveMask), func() {
		if _, err := ed.Save(); err != nil {
			onErr(err)
		}
	})
	saveBtn.Importance = widget.HighImportance

	toolbar := container.NewHBox(brushLabel, container.NewGridWrap(fyne.NewSize(200, brush.MinSize().Height), brush), undoBtn, layout.NewSpacer(), cancelBtn, saveBtn)
	win.SetContent(container.NewBorder(toolbar, nil, nil, nil, view))
	win.SetCloseIntercept(func() {
		if ed.State() == mask.StateClosed {
			win.Close()
			return
		}
		ed.Cancel()
	})
	w, h := ed.NativeSize()
	win.Resize(fyne.NewSize(float32(min(w, 1200)), float32(min(h, 800))+brush.MinSize().Height+16))
	win.Show()
}

// reviewSheet assembles the export for the current input and mask.
func reviewSheet(sess *session.Session, opts mask.Options) (export.ReviewSheet, error) {
	orig, ok := sess.Original()
	if !ok {
		return export.ReviewSheet{}, session.ErrNoOriginal
	}
	sheet := export.ReviewSheet{Title: "Viewpoint review", Original: orig}
	req, _ := sess.Request()
	sheet.Notes = generate.BuildPrompt(req)
	m, ok := sess.Mask()
	if !ok {
		return sheet, nil
	}
	sheet.Mask = m
	bg, err := imageio.Decode(orig)
	if err != nil {
		return sheet, err
	}
	cov, err := imageio.Decode(m)
	if err != nil {
		return sheet, err
	}
	preview, err := imageio.EncodePNG(mask.Tint(bg, cov, opts.Tint, opts.Opacity))
	if err != nil {
		return sheet, err
	}
	sheet.Preview = preview
	return sheet, nil
}

func ellipsize(s string, n int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
