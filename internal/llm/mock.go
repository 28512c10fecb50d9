package llm

import "context"

// MockClient is a scripted Client for tests. Responses are consumed in
// order; Err, when set, is returned for every call instead.
type MockClient struct {
	Responses []string
	Err       error

	Calls []Request
	next  int
}

func (m *MockClient) Complete(ctx context.Context, req Request) (Response, error) {
	m.Calls = append(m.Calls, req)
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if m.Err != nil {
		return Response{}, m.Err
	}
	if m.next >= len(m.Responses) {
		return Response{Text: ""}, nil
	}
	text := m.Responses[m.next]
	m.next++
	return Response{Text: text}, nil
}
