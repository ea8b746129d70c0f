package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
)

type Submission struct{ ent.Schema }

func (Submission) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "interview_submission"},
	}
}

func (Submission) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.String("job_id").NotEmpty().Immutable(),
		field.String("job_title").NotEmpty(),
		field.Text("job_description"),
		field.String("candidate_uid").NotEmpty().Immutable(),
		field.String("candidate_name").NotEmpty(),
		field.String("candidate_email").NotEmpty(),
		field.String("resume_url").NotEmpty(),
		field.String("resume_mime_type").NotEmpty(),
		// Parallel per-question sequences; all share the question count as
		// their length. Nil entries mark skipped pipeline stages.
		field.Strings("questions"),
		field.JSON("answers", []*string{}).
			SchemaType(map[string]string{dialect.Postgres: "jsonb"}),
		field.JSON("video_urls", []*string{}).
			SchemaType(map[string]string{dialect.Postgres: "jsonb"}),
		field.JSON("transcript_ids", []*string{}).
			SchemaType(map[string]string{dialect.Postgres: "jsonb"}),
		field.Strings("transcript_texts"),
		field.Text("feedback"),
		field.String("score"),        // "74/100" or "N/A"
		field.String("resume_score"), // "80/100" or "N/A"
		field.String("qna_score"),    // "70/100" or "N/A"
		field.String("status").Default("Pending"),
		field.Int("tab_switch_count").Default(0).NonNegative(),
		field.Time("submitted_at").
			Default(time.Now).
			Immutable().
			SchemaType(map[string]string{dialect.Postgres: "timestamptz"}),
	}
}

func (Submission) Edges() []ent.Edge {
	return []ent.Edge{
		// MANY submissions -> ONE job (FK: interview_submission.job_id)
		edge.From("job", Job.Type).
			Ref("submissions").
			Field("job_id").
			Required().
			Unique().
			Immutable(),
	}
}

func (Submission) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("candidate_uid", "job_id"),
	}
}
