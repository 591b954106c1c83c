package telegram

import (
	"errors"
	"fmt"
	"testing"

	"github.com/studioverse/tutormind/internal/errs"
)

func TestUserMessageForPipelineErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{errs.ErrRateLimited, errs.ErrRateLimited.Error()},
		{errs.ErrAccessDenied, errs.ErrAccessDenied.Error()},
		{errs.ErrValidation, errs.ErrValidation.Error()},
		{errs.ErrUpstreamUnavailable, errs.ErrUpstreamUnavailable.Error()},
		{fmt.Errorf("wrapped: %w", errs.ErrRateLimited), errs.ErrRateLimited.Error()},
		{errors.New("something internal"), errs.ErrUpstreamUnavailable.Error()},
	}
	for _, tc := range cases {
		if got := userMessageFor(tc.err); got != tc.want {
			t.Errorf("userMessageFor(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
