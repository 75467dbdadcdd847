/*
Copyright 2025 The llm-d Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package promptcache

import "errors"

// ErrCacheFull is returned by Store when the capacity enforcer attempts more
// evictions than the map's starting size without freeing enough room. It
// signals a logic bug. An entry whose footprint exceeds the entire budget is
// not refused: the enforcer empties the map and the entry is then admitted.
var ErrCacheFull = errors.New("cache full: eviction cannot free enough space")
