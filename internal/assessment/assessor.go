package assessment

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/spigell/candidate-matcher/internal/ai"
	"github.com/spigell/candidate-matcher/internal/jobs"
	"github.com/spigell/candidate-matcher/internal/logger"
	"github.com/spigell/candidate-matcher/internal/utils"
	"go.uber.org/zap"
)

// Assessor runs one prompt, completion and interpretation round for a requisition.
type Assessor struct {
	completer   ai.Completer
	interpreter *Interpreter
	logger      *zap.Logger
	maxLogLen   int
}

func NewAssessor(completer ai.Completer, interpreter *Interpreter, log *zap.Logger, maxLogLength int) *Assessor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if interpreter == nil {
		interpreter = NewInterpreter(log, maxLogLength)
	}

	l := logger.OrNop(log)
	if completer != nil {
		l = logger.WithCommonFields(l, completer.Provider(), completer.Model())
	}

	return &Assessor{
		completer:   completer,
		interpreter: interpreter,
		logger:      l,
		maxLogLen:   maxLogLength,
	}
}

// Assess returns the interpreted assessment. The error is non-nil only when the
// completion call itself failed; malformed replies are absorbed by the interpreter.
func (a *Assessor) Assess(ctx context.Context, resumeText string, job *jobs.Requisition) (*Assessment, error) {
	if a == nil || a.completer == nil {
		return nil, errors.New("assessor has no completer")
	}
	if job == nil {
		return nil, errors.New("requisition is required")
	}

	prompt := BuildPrompt(resumeText, job)

	a.logger.Debug("completion request",
		zap.String(logger.FieldJobID, job.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("completion response",
		zap.String(logger.FieldJobID, job.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	return a.interpreter.Interpret(raw), nil
}
