package ai

import "context"

// FakeGenerator is a deterministic backend for tests. It records the last
// prompt it was handed and replies with Reply, or fails with Err.
type FakeGenerator struct {
	Reply      string
	Err        error
	LastPrompt string
}

func (f *FakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.LastPrompt = prompt
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}

func (f *FakeGenerator) Close() error { return nil }
