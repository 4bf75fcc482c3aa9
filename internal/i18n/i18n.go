/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package i18n holds the UI strings in English and Spanish.
package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// Language is a supported UI language.
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// Key names a translatable message.
type Key string

var (
	supported = []Language{English, Spanish}
	matcher   = language.NewMatcher([]language.Tag{language.English, language.Spanish})
	tables    = map[Language]map[Key]string{English: english, Spanish: spanish}
)

// Languages returns the supported languages, English first.
func Languages() []Language { return append([]Language(nil), supported...) }

// Match picks the closest supported language for a BCP 47 tag or a POSIX
// locale such as "es_AR.UTF-8". Unknown input yields English.
func Match(tag string) Language {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, ".@"); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.ReplaceAll(tag, "_", "-")
	if tag == "" || strings.EqualFold(tag, "C") || strings.EqualFold(tag, "POSIX") {
		return English
	}
	t, err := language.Parse(tag)
	if err != nil {
		return English
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return English
	}
	return supported[idx]
}

// FromEnv matches the configured language, falling back to LC_ALL, LC_MESSAGES and LANG.
func FromEnv(configured string) Language {
	if strings.TrimSpace(configured) != "" {
		return Match(configured)
	}
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(k); v != "" {
			return Match(v)
		}
	}
	return English
}

// T returns the message for key in lang, falling back to English and then
// to the key itself.
func T(lang Language, key Key) string {
	if s, ok := tables[lang][key]; ok && s != "" {
		return s
	}
	if s, ok := english[key]; ok {
		return s
	}
	return string(key)
}

// Label translates a lower-cased option name such as a season ("winter")
// or a time of day ("Dusk").
func Label(lang Language, name string) string {
	if name == "" {
		return ""
	}
	return T(lang, Key(strings.ToLower(name)))
}

// Translator binds a language.
type Translator struct{ Lang Language }

func (t Translator) T(key Key) string { return T(t.Lang, key) }
