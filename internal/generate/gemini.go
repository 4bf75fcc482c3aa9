/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"viewpointgen/internal/imageio"
	applog "viewpointgen/internal/log"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash-image-preview"

// contentAPI is the slice of genai.Models the generator calls.
type contentAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini sends requests to a Gemini image model.
type Gemini struct {
	api     contentAPI
	model   string
	timeout time.Duration
	log     *slog.Logger
}

// NewGemini creates a client for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return newGemini(client.Models, model, timeout), nil
}

func newGemini(api contentAPI, model string, timeout time.Duration) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{api: api, model: model, timeout: timeout, log: applog.WithComponent("generate")}
}

// Generate sends the source image, the optional mask, and the prompt.
func (g *Gemini) Generate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	prompt := BuildPrompt(req)
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: req.Image.MIMEType, Data: req.Image.Data}},
	}
	if req.masked() {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: req.Mask.MIMEType, Data: req.Mask.Data}})
	}
	parts = append(parts, &genai.Part{Text: prompt})

	l := applog.WithOperation(g.log, "generate").With(slog.String("model", g.model), slog.Bool("masked", req.masked()))
	start := time.Now()
	resp, err := g.api.GenerateContent(ctx, g.model, []*genai.Content{{Role: "user", Parts: parts}}, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		l.Warn("generate content failed", slog.Any("err", err))
		return Result{Prompt: prompt}, fmt.Errorf("gemini: generate content: %w", err)
	}
	res, err := parseResponse(resp)
	res.Prompt = prompt
	if err != nil {
		l.Warn("no image in response", slog.Any("err", err), slog.String("text", res.Text))
		return res, err
	}
	l.Info("view generated", slog.Duration("took", time.Since(start)), slog.Int("bytes", len(res.Image.Data)))
	return res, nil
}

// parseResponse picks the first inline image and joins the text parts.
func parseResponse(resp *genai.GenerateContentResponse) (Result, error) {
	var res Result
	if resp == nil {
		return res, ErrNoImage
	}
	var text []string
	for _, cand := range resp.Candidates {
		for _, rating := range cand.SafetyRatings {
			if rating.Blocked {
				return res, fmt.Errorf("%w: %s", ErrBlocked, rating.Category)
			}
		}
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch {
			case part.InlineData != nil && res.Image == nil &&
				strings.HasPrefix(part.InlineData.MIMEType, "image/") && len(part.InlineData.Data) > 0:
				res.Image = &imageio.Part{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}
			case part.Text != "" && !part.Thought:
				text = append(text, part.Text)
			}
		}
	}
	res.Text = strings.TrimSpace(strings.Join(text, "\n"))
	if res.Image == nil {
		if res.Text != "" {
			return res, fmt.Errorf("%w: %s", ErrNoImage, res.Text)
		}
		return res, ErrNoImage
	}
	return res, nil
}
