/*
 * This file is part of Listen2 (https://github.com/zachswift615/Listen2-sub000).
 * Copyright (C) 2025 Zach Swift
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package align

import "errors"

var (
	// ErrInvalidVocabulary indicates the label list was empty at construction.
	// This is a configuration problem and should be fatal at startup.
	ErrInvalidVocabulary = errors.New("vocabulary contains no labels")

	// ErrModelNotInitialized indicates the emission provider is not ready.
	// Callers may retry after initialization or fall back to playback
	// without highlighting.
	ErrModelNotInitialized = errors.New("acoustic model not initialized")
)
