package pool

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kyiku/caritas-study-back/internal/model"
)

var (
	// ErrDuplicate is returned when the id (math) or word (english)
	// already exists in the target bucket.
	ErrDuplicate = errors.New("problem already exists in pool")

	// ErrSaveFailed is returned when the pool file could not be written.
	ErrSaveFailed = errors.New("failed to save problem pool")
)

// wrongOptionCount is the number of distractors an english quiz item carries.
const wrongOptionCount = 3

// ValidationError reports problems that cannot be inserted as given.
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "missing required fields: " + strings.Join(e.Missing, ", ")
	}
	return e.Reason
}

// InsertResult is the per-item outcome of a batch insert.
type InsertResult struct {
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Word    string `json:"word,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// update is a pool change to announce once the lock is released.
type update struct {
	subject string
	total   int
}

// InsertMath appends a math problem and persists the pool.
// It returns the stored problem id.
func (p *Pool) InsertMath(problem model.MathProblem) (string, error) {
	id, u, err := p.insertMath(problem)
	p.publish(u)
	return id, err
}

func (p *Pool) insertMath(problem model.MathProblem) (string, *update, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc := p.store.Load()
	id, err := p.addMath(doc, problem)
	if err != nil {
		return id, nil, err
	}
	u, ok := p.commit(doc, model.SubjectMath)
	if !ok {
		return id, nil, ErrSaveFailed
	}
	p.log.Info("math problem added", "id", id, "grade", problem.Grade, "unit", problem.Unit, "level", problem.Level)
	return id, u, nil
}

// InsertEnglish appends an english problem and persists the pool.
func (p *Pool) InsertEnglish(problem model.EnglishProblem) error {
	u, err := p.insertEnglish(problem)
	p.publish(u)
	return err
}

func (p *Pool) insertEnglish(problem model.EnglishProblem) (*update, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc := p.store.Load()
	if err := p.addEnglish(doc, problem); err != nil {
		return nil, err
	}
	u, ok := p.commit(doc, model.SubjectEnglish)
	if !ok {
		return nil, ErrSaveFailed
	}
	p.log.Info("english problem added", "word", problem.Word, "grade", problem.Grade, "level", problem.Level)
	return u, nil
}

// InsertMathBatch inserts every problem it can and saves once.
// Items are checked against each other as well as the stored pool.
func (p *Pool) InsertMathBatch(problems []model.MathProblem) []InsertResult {
	results, u := p.insertMathBatch(problems)
	p.publish(u)
	return results
}

func (p *Pool) insertMathBatch(problems []model.MathProblem) ([]InsertResult, *update) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc := p.store.Load()
	results := make([]InsertResult, len(problems))
	added := 0
	for i, problem := range problems {
		id, err := p.addMath(doc, problem)
		results[i] = InsertResult{Index: i, ID: id, Success: err == nil}
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		added++
	}

	return results, p.finishBatch(doc, results, added, model.SubjectMath)
}

// InsertEnglishBatch is the english counterpart of InsertMathBatch.
func (p *Pool) InsertEnglishBatch(problems []model.EnglishProblem) []InsertResult {
	results, u := p.insertEnglishBatch(problems)
	p.publish(u)
	return results
}

func (p *Pool) insertEnglishBatch(problems []model.EnglishProblem) ([]InsertResult, *update) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc := p.store.Load()
	results := make([]InsertResult, len(problems))
	added := 0
	for i, problem := range problems {
		err := p.addEnglish(doc, problem)
		results[i] = InsertResult{Index: i, Word: strings.TrimSpace(problem.Word), Success: err == nil}
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		added++
	}

	return results, p.finishBatch(doc, results, added, model.SubjectEnglish)
}

func (p *Pool) finishBatch(doc *model.PoolDocument, results []InsertResult, added int, subject string) *update {
	if added == 0 {
		return nil
	}
	if u, ok := p.commit(doc, subject); ok {
		p.log.Info("batch added to pool", "subject", subject, "added", added, "requested", len(results))
		return u
	}
	for i := range results {
		if results[i].Success {
			results[i].Success = false
			results[i].Error = ErrSaveFailed.Error()
		}
	}
	return nil
}

func (p *Pool) addMath(doc *model.PoolDocument, problem model.MathProblem) (string, error) {
	if missing := missingMathFields(problem); len(missing) > 0 {
		return problem.ID, &ValidationError{Missing: missing}
	}
	if problem.Unit == model.AllUnits {
		return problem.ID, &ValidationError{Reason: "unit must name a concrete unit, not " + model.AllUnits}
	}
	if problem.ID == "" {
		problem.ID = p.newMathID(problem)
	}

	doc.EnsureMathBucket(problem.Grade, problem.Unit)
	bucket := doc.Math[problem.Grade][problem.Unit][problem.Level]
	for _, existing := range bucket {
		if existing.ID == problem.ID {
			return problem.ID, fmt.Errorf("%w: id %s", ErrDuplicate, problem.ID)
		}
	}

	problem.CreatedAt = p.timestamp()
	doc.Math[problem.Grade][problem.Unit][problem.Level] = append(bucket, problem)
	return problem.ID, nil
}

func (p *Pool) addEnglish(doc *model.PoolDocument, problem model.EnglishProblem) error {
	problem.Word = strings.TrimSpace(problem.Word)
	if missing := missingEnglishFields(problem); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	if len(problem.WrongOptions) != wrongOptionCount {
		return &ValidationError{Reason: fmt.Sprintf("wrong_options must contain exactly %d items, got %d", wrongOptionCount, len(problem.WrongOptions))}
	}

	doc.EnsureEnglishBucket(problem.Grade)
	bucket := doc.English[problem.Grade][problem.Level]
	for _, existing := range bucket {
		if existing.Word == problem.Word {
			return fmt.Errorf("%w: word %s", ErrDuplicate, problem.Word)
		}
	}

	problem.CreatedAt = p.timestamp()
	doc.English[problem.Grade][problem.Level] = append(bucket, problem)
	return nil
}

// commit refreshes stats and saves the document. Must hold p.mu.
func (p *Pool) commit(doc *model.PoolDocument, subject string) (*update, bool) {
	doc.RecountStats()
	doc.Stats.LastUpdated = p.timestamp()
	if !p.store.Save(doc) {
		return nil, false
	}
	return &update{subject: subject, total: doc.Stats.TotalProblems}, true
}

// publish tells the notifier about u. Must not hold p.mu.
func (p *Pool) publish(u *update) {
	if u == nil {
		return
	}
	p.notifyMu.Lock()
	n := p.notifier
	p.notifyMu.Unlock()
	if n != nil {
		n.PoolUpdated(u.subject, u.total)
	}
}

func (p *Pool) newMathID(problem model.MathProblem) string {
	return fmt.Sprintf("%s_%s_%s_%d_%s",
		problem.Grade, problem.Unit, problem.Level,
		p.now().UnixMilli(), uuid.NewString()[:8])
}

func missingMathFields(problem model.MathProblem) []string {
	var missing []string
	if problem.Grade == "" {
		missing = append(missing, "grade")
	}
	if problem.Unit == "" {
		missing = append(missing, "unit")
	}
	if problem.Level == "" {
		missing = append(missing, "level")
	}
	if problem.Problem == "" {
		missing = append(missing, "problem")
	}
	if problem.Answer == "" {
		missing = append(missing, "answer")
	}
	return missing
}

func missingEnglishFields(problem model.EnglishProblem) []string {
	var missing []string
	if problem.Word == "" {
		missing = append(missing, "word")
	}
	if problem.Grade == "" {
		missing = append(missing, "grade")
	}
	if problem.Level == "" {
		missing = append(missing, "level")
	}
	if problem.CorrectMeaning == "" {
		missing = append(missing, "correct_meaning")
	}
	if len(problem.WrongOptions) == 0 {
		missing = append(missing, "wrong_options")
	}
	return missing
}
