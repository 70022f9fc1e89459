// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package internal_pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a pipeline failure for the delivery response.
type ErrorCode string

const (
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"  // bad or missing delivery signature
	CodeNotFound     ErrorCode = "NOT_FOUND"     // session row does not exist
	CodeInvalidState ErrorCode = "INVALID_STATE" // session not claimable, usually a redelivery
	CodeUpstream     ErrorCode = "UPSTREAM"      // external service call failed
	CodeInternal     ErrorCode = "INTERNAL"      // persistence or precondition failure
)

// Step names the pipeline stage that produced a failure. Logged alongside the
// session id so an operator can place the failure without reading a trace.
type Step string

const (
	StepVerify     Step = "verify"
	StepLoad       Step = "load"
	StepGuard      Step = "guard"
	StepFetchAudio Step = "fetch-audio"
	StepTranscribe Step = "transcribe"
	StepPersist    Step = "persist"
	StepAnalyze    Step = "analyze"
	StepAggregate  Step = "aggregate"
	StepFinalize   Step = "finalize"
)

// PipelineError is the failure type every pipeline run reports.
type PipelineError struct {
	Code ErrorCode
	Step Step
	Err  error
}

// NewError wraps a cause with its classification and failing step.
func NewError(code ErrorCode, step Step, err error) *PipelineError {
	return &PipelineError{
		Code: code,
		Step: step,
		Err:  err,
	}
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline step %s failed (%s): %v", e.Step, e.Code, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the failure onto the delivery response contract.
func (e *PipelineError) HTTPStatus() int {
	switch e.Code {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AsPipelineError unwraps err to the pipeline failure it carries, if any.
func AsPipelineError(err error) (*PipelineError, bool) {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
