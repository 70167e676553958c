package services

import "github.com/callsight/backend/pkg/response"

// The aggregation pipeline distinguishes two caller-visible failure kinds:
// an invalid request (unknown report type, malformed date range) fails fast
// with no work attempted, and a dependency failure means a pipeline step
// errored after fetching began. Either way no partial report is returned and
// nothing is cached.

func newInvalidRequest(msg string) error {
	return response.NewBadRequest(msg)
}

func newDependencyFailure(msg string) error {
	return response.NewBadGateway(msg)
}
