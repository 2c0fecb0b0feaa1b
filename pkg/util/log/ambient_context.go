// Copyright 2024 The Impala-Go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package log

import (
	"context"

	"github.com/cockroachdb/logtags"
)

// AmbientContext is a holder for fields used to annotate the contexts of
// operations started by a server component. Components usually have a single
// AmbientContext embedded in their config struct and annotate every context
// that enters them.
type AmbientContext struct {
	tags *logtags.Buffer
}

// AddLogTag adds a tag; these will be applied to all contexts passing through
// AnnotateCtx.
func (ac *AmbientContext) AddLogTag(name string, value interface{}) {
	ac.tags = ac.tags.Add(name, value)
}

// AnnotateCtx annotates a given context with the ambient log tags. Tags
// already present in the context are preserved.
func (ac *AmbientContext) AnnotateCtx(ctx context.Context) context.Context {
	if ac.tags == nil {
		return ctx
	}
	return logtags.AddTags(ctx, ac.tags)
}
