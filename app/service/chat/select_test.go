package chat

import (
	"context"
	"fmt"
	"testing"

	"infrachat/app/service/retrieval"

	"github.com/stretchr/testify/assert"
)

func TestSelectTools(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		want     retrieval.Selection
	}{
		{
			name:     "explicit subset",
			response: `{"rag": true, "sql_query": false, "log_analytics": false}`,
			want:     retrieval.Selection{DocSearch: true},
		},
		{
			name:     "missing fields default to true",
			response: `{"sql_query": false}`,
			want:     retrieval.Selection{DocSearch: true, LogAnalytics: true},
		},
		{
			name:     "fenced json is cleaned",
			response: "```json\n{\"rag\": false, \"sql_query\": true, \"log_analytics\": false}\n```",
			want:     retrieval.Selection{SQLQuery: true},
		},
		{
			name:     "malformed json fails open",
			response: "sure! here is my decision: rag",
			want:     retrieval.AllTools(),
		},
		{
			name: "model error fails open",
			err:  fmt.Errorf("rate limit exceeded"),
			want: retrieval.AllTools(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := &fakeLLM{jsonResponse: tc.response, jsonErr: tc.err}
			svc := newTestService(model, &fakeSource{}, &fakeRelational{}, &fakeSource{})

			assert.Equal(t, tc.want, svc.selectTools(context.Background(), "query"))
		})
	}
}
