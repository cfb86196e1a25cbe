package store

import (
	"context"
	"fmt"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/cefr"
)

type catalogRepo struct {
	store *Store
}

func (r *catalogRepo) Replace(ctx context.Context, c *catalog.Catalog) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	b := r.store.builder()
	for _, t := range []string{tableChoices, tableQuestions, tablePassages, tableRubrics} {
		if err := exec(ctx, tx, b.Delete(t)); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}

	for i, q := range c.Questions() {
		ins := b.Insert(tableQuestions).
			Columns("id", "position", "question_text", "category", "difficulty", "answer_type",
				"correct_answer", "min_word_count", "writing_type", "reading_id", "rubric_id", "audio", "image").
			Values(q.ID, i, q.Text, q.Category, q.Band.String(), string(q.AnswerType),
				q.CorrectAnswer, q.MinWordCount, q.WritingType, q.ReadingID, q.RubricID, q.Audio, q.Image)
		if err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
		for j, ch := range q.Choices {
			ins := b.Insert(tableChoices).
				Columns("question_id", "position", "label", "choice_text").
				Values(q.ID, j, ch.Label, ch.Text)
			if err := exec(ctx, tx, ins); err != nil {
				return fmt.Errorf("insert choice for %s: %w", q.ID, err)
			}
		}
	}

	for table, texts := range map[string]map[string]string{
		tablePassages: c.Passages(),
		tableRubrics:  c.Rubrics(),
	} {
		for id, body := range texts {
			if err := exec(ctx, tx, b.Insert(table).Columns("id", "body").Values(id, body)); err != nil {
				return fmt.Errorf("insert %s %s: %w", table, id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *catalogRepo) Load(ctx context.Context) (*catalog.Catalog, error) {
	questions, err := r.Questions(ctx)
	if err != nil {
		return nil, err
	}
	passages, err := r.Passages(ctx)
	if err != nil {
		return nil, err
	}
	rubrics, err := r.Rubrics(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.New(questions, passages, rubrics)
}

func (r *catalogRepo) Questions(ctx context.Context) ([]catalog.Question, error) {
	b := r.store.builder()
	query, args := b.Select("id", "question_text", "category", "difficulty", "answer_type",
		"correct_answer", "min_word_count", "writing_type", "reading_id", "rubric_id", "audio", "image").
		From(b.Table(tableQuestions)).
		OrderBy("position").
		Query()

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	var questions []catalog.Question
	for rows.Next() {
		var (
			q          catalog.Question
			difficulty string
			answerType string
		)
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &difficulty, &answerType,
			&q.CorrectAnswer, &q.MinWordCount, &q.WritingType, &q.ReadingID, &q.RubricID, &q.Audio, &q.Image); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan question: %w", err)
		}
		band, err := cefr.ParseBand(difficulty)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		q.Band = band
		q.AnswerType = catalog.AnswerType(answerType)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	rows.Close()

	choices, err := r.choices(ctx)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		questions[i].Choices = choices[questions[i].ID]
	}
	return questions, nil
}

func (r *catalogRepo) choices(ctx context.Context) (map[string][]catalog.Choice, error) {
	b := r.store.builder()
	query, args := b.Select("question_id", "label", "choice_text").
		From(b.Table(tableChoices)).
		OrderBy("question_id", "position").
		Query()

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query choices: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]catalog.Choice)
	for rows.Next() {
		var qid string
		var c catalog.Choice
		if err := rows.Scan(&qid, &c.Label, &c.Text); err != nil {
			return nil, fmt.Errorf("scan choice: %w", err)
		}
		out[qid] = append(out[qid], c)
	}
	return out, rows.Err()
}

func (r *catalogRepo) Passages(ctx context.Context) (map[string]string, error) {
	return r.texts(ctx, tablePassages)
}

func (r *catalogRepo) Rubrics(ctx context.Context) (map[string]string, error) {
	return r.texts(ctx, tableRubrics)
}

func (r *catalogRepo) texts(ctx context.Context, table string) (map[string]string, error) {
	b := r.store.builder()
	query, args := b.Select("id", "body").From(b.Table(table)).Query()

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out[id] = body
	}
	return out, rows.Err()
}
