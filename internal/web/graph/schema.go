// Package graph serves read models over GraphQL.
//
// Root fields are bound to resolver functions at startup. A resolver returns
// any JSON-marshalable value, and the executor projects it onto the client's
// selection set using the schema's type definitions.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/Laisky/errors/v2"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// FieldResolver resolves one root field from its coerced arguments.
type FieldResolver func(ctx context.Context, args map[string]any) (any, error)

// Resolvers binds the root fields of the schema.
type Resolvers struct {
	Query    map[string]FieldResolver
	Mutation map[string]FieldResolver
}

// Schema is a graphql.ExecutableSchema over hand-bound root resolvers.
type Schema struct {
	schema    *ast.Schema
	resolvers Resolvers
}

var _ graphql.ExecutableSchema = (*Schema)(nil)

// NewSchema parses sdl and checks that every root field has a resolver.
func NewSchema(sdl string, resolvers Resolvers) (*Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
	if err != nil {
		return nil, errors.Wrap(err, "load graphql schema")
	}

	if err := checkRoot(schema.Query, resolvers.Query); err != nil {
		return nil, err
	}
	if err := checkRoot(schema.Mutation, resolvers.Mutation); err != nil {
		return nil, err
	}

	return &Schema{schema: schema, resolvers: resolvers}, nil
}

func checkRoot(def *ast.Definition, resolvers map[string]FieldResolver) error {
	if def == nil {
		return nil
	}

	for _, f := range def.Fields {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}
		if resolvers[f.Name] == nil {
			return errors.Errorf("no resolver for %s.%s", def.Name, f.Name)
		}
	}

	return nil
}

// Schema returns the parsed schema.
func (s *Schema) Schema() *ast.Schema {
	return s.schema
}

// Complexity leaves every field at the default complexity.
func (s *Schema) Complexity(_ context.Context, _, _ string, _ int, _ map[string]any) (int, bool) {
	return 0, false
}

// Exec runs the validated operation of ctx. Root fields run in document order.
func (s *Schema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)

	var (
		root      *ast.Definition
		resolvers map[string]FieldResolver
	)
	switch opCtx.Operation.Operation {
	case ast.Query:
		root, resolvers = s.schema.Query, s.resolvers.Query
	case ast.Mutation:
		root, resolvers = s.schema.Mutation, s.resolvers.Mutation
	}
	if root == nil {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported operation %s", opCtx.Operation.Operation))
	}

	var done bool
	return func(ctx context.Context) *graphql.Response {
		if done {
			return nil
		}
		done = true

		buf := new(bytes.Buffer)
		buf.WriteByte('{')
		for i, field := range graphql.CollectFields(opCtx, opCtx.Operation.SelectionSet, []string{root.Name}) {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeKey(buf, field.Alias)

			switch {
			case field.Name == "__typename":
				writeValue(buf, root.Name)
				continue
			case strings.HasPrefix(field.Name, "__"):
				addFieldError(ctx, field.Alias, errors.New("introspection is not supported"))
				buf.WriteString("null")
				continue
			}

			val, err := resolvers[field.Name](ctx, field.ArgumentMap(opCtx.Variables))
			if err != nil {
				addFieldError(ctx, field.Alias, err)
				buf.WriteString("null")
				continue
			}

			if err = s.complete(buf, opCtx, root.Fields.ForName(field.Name).Type, field.Selections, val); err != nil {
				addFieldError(ctx, field.Alias, err)
			}
		}
		buf.WriteByte('}')

		return &graphql.Response{Data: buf.Bytes()}
	}
}

// complete writes val shaped by typ and the selection set sel.
func (s *Schema) complete(buf *bytes.Buffer, opCtx *graphql.OperationContext,
	typ *ast.Type, sel ast.SelectionSet, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, "marshal result")
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err = dec.Decode(&generic); err != nil {
		return errors.Wrap(err, "decode result")
	}

	s.project(buf, opCtx, typ, sel, generic)
	return nil
}

func (s *Schema) project(buf *bytes.Buffer, opCtx *graphql.OperationContext,
	typ *ast.Type, sel ast.SelectionSet, val any) {
	if val == nil {
		if typ.Elem != nil && typ.NonNull {
			buf.WriteString("[]")
			return
		}
		buf.WriteString("null")
		return
	}

	if typ.Elem != nil {
		items, _ := val.([]any)
		buf.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				buf.WriteByte(',')
			}
			s.project(buf, opCtx, typ.Elem, sel, item)
		}
		buf.WriteByte(']')
		return
	}

	obj, ok := val.(map[string]any)
	def := s.schema.Types[typ.Name()]
	if !ok || def == nil || len(sel) == 0 {
		writeValue(buf, val)
		return
	}

	buf.WriteByte('{')
	for i, field := range graphql.CollectFields(opCtx, sel, []string{def.Name}) {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeKey(buf, field.Alias)

		if field.Name == "__typename" {
			writeValue(buf, def.Name)
			continue
		}

		fieldDef := def.Fields.ForName(field.Name)
		if fieldDef == nil {
			buf.WriteString("null")
			continue
		}
		s.project(buf, opCtx, fieldDef.Type, field.Selections, obj[field.Name])
	}
	buf.WriteByte('}')
}

func writeKey(buf *bytes.Buffer, key string) {
	writeValue(buf, key)
	buf.WriteByte(':')
}

func writeValue(buf *bytes.Buffer, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		buf.WriteString("null")
		return
	}
	buf.Write(raw)
}

// addFieldError reports err on the root field alias.
// A *gqlerror.Error keeps its message and extensions.
func addFieldError(ctx context.Context, alias string, err error) {
	path := ast.Path{ast.PathName(alias)}

	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		gqlErr.Path = path
		graphql.AddError(ctx, gqlErr)
		return
	}

	graphql.AddError(ctx, &gqlerror.Error{
		Err:     err,
		Message: err.Error(),
		Path:    path,
	})
}
