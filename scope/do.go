package scope

// Do opens target, runs fn against the held scope, and always closes —
// mirroring Python's `with ProtectFile(...) as f:` block from the
// original source. fn's error is returned verbatim; a Close failure
// after a successful fn only surfaces if fn itself succeeded.
func Do(target string, mode Mode, fn func(*Scope) error, opts ...Option) error {
	s, err := Open(target, mode, opts...)
	if err != nil {
		return err
	}

	fnErr := fn(s)
	closeErr := s.Close()
	if fnErr != nil {
		return fnErr
	}
	return closeErr
}
