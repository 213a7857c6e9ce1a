// Package grader judges free-text answers with an LLM.
//
// A Grader renders the question, reference answer and transcript into a
// prompt, asks the configured provider (Gemini, OpenAI or Anthropic) for a
// JSON verdict, and validates the reply against the rubric schema before
// turning it into a domain.GradeResult. Any provider failure, timeout or
// malformed reply is reported as domain.ErrGradingUnavailable; callers decide
// how to degrade.
package grader
