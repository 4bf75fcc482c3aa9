//go:build nokeyring

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import "sync"

// Headless builds without a secret service keep secrets in process memory only.
var (
	memKeyringMu sync.Mutex
	memKeyring   = map[string]string{}
)

func init() {
	keyringGet = func(service, key string) (string, error) {
		memKeyringMu.Lock()
		defer memKeyringMu.Unlock()
		return memKeyring[service+"/"+key], nil
	}
	keyringSet = func(service, key, value string) error {
		memKeyringMu.Lock()
		defer memKeyringMu.Unlock()
		memKeyring[service+"/"+key] = value
		return nil
	}
	keyringDelete = func(service, key string) error {
		memKeyringMu.Lock()
		defer memKeyringMu.Unlock()
		delete(memKeyring, service+"/"+key)
		return nil
	}
}
