package heuristics

// maxRunLength caps a single printable run; longer runs are flushed in pieces
const maxRunLength = 256

// fragment is one extracted string. cont marks a piece that directly follows
// a force-flushed piece of the same printable run.
type fragment struct {
	text string
	cont bool
}

// ExtractStrings scans raw bytes for printable strings, first as 8-bit ASCII
// runs and then as UTF-16LE runs (printable low byte, zero high byte).
// Strings shorter than opts.MinLen are dropped and at most opts.MaxCount
// strings are returned across both passes.
func ExtractStrings(data []byte, opts ExtractOptions) []string {
	frags := extract(data, opts)
	out := make([]string, len(frags))
	for i, f := range frags {
		out[i] = f.text
	}
	return out
}

func extract(data []byte, opts ExtractOptions) []fragment {
	opts = normalizeOptions(opts)

	s := &runScanner{minLen: opts.MinLen, maxCount: opts.MaxCount}

	// 8-bit pass
	for _, b := range data {
		if s.full() {
			return s.out
		}
		if isPrintable(b) {
			s.push(b)
		} else {
			s.terminate()
		}
	}
	s.terminate()

	// 16-bit pass, aligned pairs only; an odd trailing byte is ignored
	for i := 0; i+1 < len(data); i += 2 {
		if s.full() {
			return s.out
		}
		if data[i+1] == 0x00 && isPrintable(data[i]) {
			s.push(data[i])
		} else {
			s.terminate()
		}
	}
	s.terminate()

	return s.out
}

func normalizeOptions(opts ExtractOptions) ExtractOptions {
	def := DefaultExtractOptions()
	if opts.MinLen <= 0 {
		opts.MinLen = def.MinLen
	}
	if opts.MaxCount <= 0 {
		opts.MaxCount = def.MaxCount
	}
	if opts.MinLen > maxRunLength {
		opts.MinLen = maxRunLength
	}
	return opts
}

func isPrintable(b byte) bool {
	return b >= 32 && b <= 126
}

// runScanner accumulates one printable run at a time
type runScanner struct {
	minLen   int
	maxCount int
	cur      []byte
	flushed  bool // current run already produced a force-flushed piece
	out      []fragment
}

func (s *runScanner) full() bool {
	return len(s.out) >= s.maxCount
}

func (s *runScanner) push(b byte) {
	s.cur = append(s.cur, b)
	if len(s.cur) >= maxRunLength {
		s.emit()
		s.flushed = true
	}
}

// terminate ends the current run, emitting it when it is long enough
func (s *runScanner) terminate() {
	if len(s.cur) >= s.minLen && !s.full() {
		s.emit()
	}
	s.cur = s.cur[:0]
	s.flushed = false
}

func (s *runScanner) emit() {
	if s.full() {
		s.cur = s.cur[:0]
		return
	}
	s.out = append(s.out, fragment{text: string(s.cur), cont: s.flushed})
	s.cur = s.cur[:0]
}
