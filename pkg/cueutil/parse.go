// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

// Schema is a compiled-once, checked CUE definition. It is immutable and safe
// for concurrent use: every operation builds its own cue.Context.
type Schema struct {
	src         []byte
	path        string
	filename    string
	maxFileSize int64
}

// CompileSchema checks that src compiles and defines schemaPath
// (e.g. "#NTPv1") and returns a reusable Schema.
func CompileSchema(src []byte, schemaPath string, opts ...Option) (*Schema, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	filename := options.filename
	if filename == "" {
		filename = "<schema>"
	}

	s := &Schema{
		src:         src,
		path:        schemaPath,
		filename:    filename,
		maxFileSize: options.maxFileSize,
	}
	if _, err := s.root(cuecontext.New()); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the root definition path.
func (s *Schema) Path() string { return s.path }

// UnifyJSON converts data (a JSON document) to CUE and unifies it with the
// root definition. Syntax errors are returned as errors; constraint
// violations are left for the caller to surface with Validate.
func (s *Schema) UnifyJSON(data []byte) (cue.Value, error) {
	if err := CheckFileSize(data, s.maxFileSize, "<value>"); err != nil {
		return cue.Value{}, err
	}

	ctx := cuecontext.New()
	root, err := s.root(ctx)
	if err != nil {
		return cue.Value{}, err
	}

	expr, err := cuejson.Extract("<value>", data)
	if err != nil {
		return cue.Value{}, fmt.Errorf("invalid JSON value: %w", err)
	}
	userValue := ctx.BuildExpr(expr)
	if userValue.Err() != nil {
		return cue.Value{}, FormatError(userValue.Err(), "<value>")
	}

	return root.Unify(userValue), nil
}

// Fields returns the names of the fields the root definition declares,
// including optional ones, in declaration order.
func (s *Schema) Fields() ([]string, error) {
	root, err := s.root(cuecontext.New())
	if err != nil {
		return nil, err
	}

	iter, err := root.Fields(cue.Optional(true))
	if err != nil {
		return nil, FormatError(err, s.filename)
	}
	var names []string
	for iter.Next() {
		names = append(names, iter.Selector().Unquoted())
	}
	return names, nil
}

func (s *Schema) root(ctx *cue.Context) (cue.Value, error) {
	schemaValue := ctx.CompileBytes(s.src, cue.Filename(s.filename))
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", FormatError(schemaValue.Err(), s.filename))
	}

	root := schemaValue.LookupPath(cue.ParsePath(s.path))
	if root.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", s.path, root.Err())
	}
	return root, nil
}
