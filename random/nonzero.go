package random

// oversample is the factor by which non-zero requests are enlarged to avoid extra rounds.
const oversample = 1.05

// fillNonZero fills p with the non-zero bytes returned by fill.
func fillNonZero(p []byte, fill func([]byte) error) error {
	for pos := 0; pos < len(p); {
		buf := make([]byte, int(oversample*float64(len(p)-pos)))
		if err := fill(buf); err != nil {
			clear(buf)
			clear(p)
			return err
		}

		for _, b := range buf {
			if b != 0 {
				p[pos] = b
				pos++
				if pos == len(p) {
					break
				}
			}
		}
		clear(buf)
	}
	return nil
}
