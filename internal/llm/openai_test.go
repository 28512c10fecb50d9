package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "unauthorized maps to ErrAuth",
			err:  &openai.APIError{HTTPStatusCode: http.StatusUnauthorized},
			want: ErrAuth,
		},
		{
			name: "forbidden maps to ErrAuth",
			err:  &openai.APIError{HTTPStatusCode: http.StatusForbidden},
			want: ErrAuth,
		},
		{
			name: "too many requests maps to ErrRateLimit",
			err:  &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
			want: ErrRateLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, categorize(tt.err), tt.want)
		})
	}
}

func TestCategorize_GenericErrorStaysGeneric(t *testing.T) {
	base := fmt.Errorf("connection refused")
	got := categorize(base)
	assert.False(t, errors.Is(got, ErrAuth))
	assert.False(t, errors.Is(got, ErrRateLimit))
	assert.ErrorIs(t, got, base)
}

func TestCategorize_ServerErrorStaysGeneric(t *testing.T) {
	got := categorize(&openai.APIError{HTTPStatusCode: http.StatusInternalServerError})
	assert.False(t, errors.Is(got, ErrAuth))
	assert.False(t, errors.Is(got, ErrRateLimit))
}
