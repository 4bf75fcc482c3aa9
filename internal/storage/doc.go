/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package storage keeps the session history: the uploaded original and every
// generated view, newest first. Stores are in memory, in an embedded SQLite
// file (modernc) or in Postgres (pgx); all satisfy Store and behave the same.
// A history can be moved between stores as a JSON manifest that is checked
// against an embedded schema before anything is written.
package storage
