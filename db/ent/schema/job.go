package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

type Job struct{ ent.Schema }

func (Job) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "job"},
	}
}

func (Job) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable().
			NotEmpty().
			StorageKey("id"),
		field.String("title").NotEmpty(),
		field.Text("description").NotEmpty(),
	}
}

func (Job) Edges() []ent.Edge {
	return []ent.Edge{
		// ONE job -> MANY submissions
		edge.To("submissions", Submission.Type),
	}
}
