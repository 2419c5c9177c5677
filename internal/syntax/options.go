package syntax

// Options configures a TokenizationEngine.
type Options struct {
	// TabLength is the number of columns a tab expands to for indent-level
	// queries. Must be positive; non-positive values fall back to the default.
	TabLength int

	// LargeFileMode disables background tokenization entirely: every row is
	// reported as fully tokenized against a single root-scope span, trading
	// syntax highlighting for instant load on very large files.
	LargeFileMode bool

	// ChunkSize is the maximum number of rows rebuilt per background chunk.
	// Its exact value only affects latency and throughput, never correctness.
	ChunkSize int

	// AssertHook receives invariant violations found while folding a tag
	// stream. Defaults to DefaultAssertHook.
	AssertHook AssertHook
}

const (
	defaultTabLength = 2
	defaultChunkSize = 20
)

func (o Options) withDefaults() Options {
	if o.TabLength <= 0 {
		o.TabLength = defaultTabLength
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	if o.AssertHook == nil {
		o.AssertHook = DefaultAssertHook
	}
	return o
}
