package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type responseRepo struct {
	store *Store
}

func (r *responseRepo) Append(ctx context.Context, resp *Response) error {
	seq, err := r.store.seq.Next(ctx)
	if err != nil {
		return err
	}
	if resp.SubmittedAt.IsZero() {
		resp.SubmittedAt = time.Now()
	}
	resp.SubmittedAt = resp.SubmittedAt.UTC().Truncate(time.Millisecond)
	resp.Sequence = seq

	ins := r.store.builder().Insert(tableResponses).
		Columns("sequence", "user_id", "question_id", "mode", "transcript", "score", "feedback", "submitted_at").
		Values(seq, resp.UserID, resp.QuestionID, resp.Mode, resp.Transcript, resp.Score, resp.Feedback,
			resp.SubmittedAt.UnixMilli())
	if err := exec(ctx, r.store.db, ins); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (r *responseRepo) ForUser(ctx context.Context, userID string, opts QueryOpts) ([]Response, error) {
	b := r.store.builder()
	sel := b.Select("id", "sequence", "user_id", "question_id", "mode", "transcript", "score", "feedback", "submitted_at").
		From(b.Table(tableResponses)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("sequence")
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("submitted_at", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("submitted_at", opts.To.UnixMilli()))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		var resp Response
		var submitted int64
		if err := rows.Scan(&resp.ID, &resp.Sequence, &resp.UserID, &resp.QuestionID, &resp.Mode,
			&resp.Transcript, &resp.Score, &resp.Feedback, &submitted); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		resp.SubmittedAt = time.UnixMilli(submitted).UTC()
		out = append(out, resp)
	}
	return out, rows.Err()
}

func (r *responseRepo) Summary(ctx context.Context, userID string) (*UserSummary, error) {
	b := r.store.builder()
	query, args := b.Select(entsql.Count("*"), entsql.Avg("score")).
		From(b.Table(tableResponses)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var total int
	var avg sql.NullFloat64
	if err := r.store.db.QueryRowContext(ctx, query, args...).Scan(&total, &avg); err != nil {
		return nil, fmt.Errorf("aggregate responses: %w", err)
	}

	sum := &UserSummary{TotalSubmissions: total, AverageScore: avg.Float64}
	if total == 0 {
		return sum, nil
	}

	query, args = b.Select("mode", "score", "submitted_at").
		From(b.Table(tableResponses)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("sequence")).
		Limit(1).
		Query()

	var submitted int64
	err := r.store.db.QueryRowContext(ctx, query, args...).Scan(&sum.MostRecentMode, &sum.MostRecentScore, &submitted)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest response: %w", err)
	}
	sum.LastUpdated = time.UnixMilli(submitted).UTC()
	return sum, nil
}
