package syntax

// Envelope is the serialization shape for a TokenizationEngine. It names the
// buffer it is bound to, rather than embedding buffer content, so
// deserializing requires an environment that can resolve a buffer id back to
// a live buffer.
type Envelope struct {
	Deserializer  string
	BufferPath    string
	BufferID      string
	TabLength     int
	LargeFileMode bool
}

// Serialize returns e's envelope.
func (e *TokenizationEngine) Serialize() Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Envelope{
		Deserializer:  "TokenizedBuffer",
		BufferPath:    e.buffer.Path(),
		BufferID:      e.buffer.ID(),
		TabLength:     e.opts.TabLength,
		LargeFileMode: e.opts.LargeFileMode,
	}
}

// BufferResolver resolves a buffer id to a live TextBuffer. It is the
// environment dependency Deserialize requires.
type BufferResolver interface {
	ResolveBuffer(id string) (TextBuffer, bool)
}

// Deserialize reconstructs a TokenizationEngine from env, or returns nil if
// resolver has no live buffer for env.BufferID.
func Deserialize(env Envelope, resolver BufferResolver, grammar Grammar, opts Options) *TokenizationEngine {
	buf, ok := resolver.ResolveBuffer(env.BufferID)
	if !ok {
		return nil
	}
	opts.TabLength = env.TabLength
	opts.LargeFileMode = env.LargeFileMode
	e := NewTokenizationEngine(nil, buf, nil, opts)
	if grammar != nil {
		e.SetGrammar(grammar)
	}
	return e
}
