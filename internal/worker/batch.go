package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/askroute/internal/model"
)

// Answerer answers a single question
type Answerer interface {
	Answer(question string, topK int) (*model.Result, error)
}

// AskJob answers one question of a batch
type AskJob struct {
	Index    int
	Question string
	TopK     int
	Answerer Answerer
}

// Execute answers the question unless the batch was cancelled
func (j *AskJob) Execute(ctx context.Context) *AskResult {
	if err := ctx.Err(); err != nil {
		return &AskResult{Index: j.Index, Question: j.Question, Error: err}
	}

	result, err := j.Answerer.Answer(j.Question, j.TopK)
	return &AskResult{
		Index:    j.Index,
		Question: j.Question,
		Result:   result,
		Error:    err,
	}
}

// AskResult is the outcome of one AskJob
type AskResult struct {
	Index    int
	Question string
	Result   *model.Result
	Error    error
}

// BatchAsker answers many questions concurrently
type BatchAsker struct {
	answerer    Answerer
	concurrency int
	topK        int
}

// NewBatchAsker creates a batch asker
func NewBatchAsker(answerer Answerer, concurrency int, topK int) *BatchAsker {
	return &BatchAsker{
		answerer:    answerer,
		concurrency: concurrency,
		topK:        topK,
	}
}

// ProcessQuestions answers all questions and returns the results in input order
func (b *BatchAsker) ProcessQuestions(ctx context.Context, questions []string) []*AskResult {
	if len(questions) == 0 {
		return []*AskResult{}
	}

	pool := NewPool[*AskResult](ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, q := range questions {
			pool.Submit(&AskJob{
				Index:    i,
				Question: q,
				TopK:     b.topK,
				Answerer: b.answerer,
			})
		}
		pool.Close()
	}()

	results := make([]*AskResult, 0, len(questions))
	for r := range pool.Results() {
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	return results
}

// ProcessFile reads questions from a file and answers them concurrently
func (b *BatchAsker) ProcessFile(ctx context.Context, filePath string) ([]*AskResult, error) {
	questions, err := ReadQuestionsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	return b.ProcessQuestions(ctx, questions), nil
}

// ReadQuestionsFromFile reads one question per line, skipping blank lines,
// '#' comments and duplicates
func ReadQuestionsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var questions []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			questions = append(questions, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return questions, nil
}
