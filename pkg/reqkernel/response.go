package reqkernel

// StreamItem is one element of a lazy async sequence (SSE/NDJSON) surfaced
// through Response.Stream, per spec §3 ("may also be a lazy async sequence
// for streams").
type StreamItem struct {
	Data  []byte
	Err   error
	Final bool
}

// Response is the uniform result envelope returned regardless of transport
// (spec §3). Status is HTTP-semantic even for non-HTTP transports, which
// map their own result codes into this space (e.g. IMAP/SMTP connectors
// report 200 on success, 5xx on protocol-level failure).
type Response struct {
	Status     int
	StatusText string
	Headers    Headers
	Data       any
	Stream     <-chan StreamItem
}

// Ok reports the `200 <= status < 300` convenience derived field.
func (r *Response) Ok() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// StatusCode and Header satisfy pkg/retry's HTTPResult, the minimal shape
// its HTTP predicate and Retry-After extractor need, without retry
// importing this package and creating a cycle.
func (r *Response) StatusCode() int {
	return r.Status
}

func (r *Response) Header(name string) string {
	v, _ := r.Headers.Get(name)
	return v
}

// Clone returns a shallow copy so cache policies can hand out independent
// Response values to concurrent callers without one caller's header
// mutation leaking into another's (spec §4.5 "return a clone of the stored
// response").
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	clone := &Response{
		Status:     r.Status,
		StatusText: r.StatusText,
		Data:       r.Data,
		Stream:     r.Stream,
	}
	clone.Headers = r.Headers.Clone()
	return clone
}
