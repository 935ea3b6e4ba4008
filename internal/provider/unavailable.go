package provider

import "context"

var _ Provider = (*unavailable)(nil)

// Unavailable returns a provider that fails every call with the given init
// error. It stands in for a backend whose construction failed at startup, so
// callers see a provider error at call time instead of a nil dereference.
func Unavailable(name string, err error) Provider {
	return &unavailable{name: name, err: err}
}

type unavailable struct {
	name string
	err  error
}

func (u *unavailable) Name() string {
	return u.name
}

func (u *unavailable) Summarize(ctx context.Context, text string) (*Summary, error) {
	return nil, &Error{Provider: u.name, Op: "summarize", Err: u.err}
}

func (u *unavailable) GenerateFlashcards(ctx context.Context, text string, count int) ([]Flashcard, error) {
	return nil, &Error{Provider: u.name, Op: "generate flashcards", Err: u.err}
}
