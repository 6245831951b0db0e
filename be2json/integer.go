package be2json

// Integer lexer states.
const (
	intStart     = iota // expecting '-' or a digit
	intAfterSign        // expecting a non-zero digit
	intAfterZero        // lone zero, expecting 'e'
	intDigits           // expecting a digit or 'e'
)

// lexInteger consumes the body of an integer token (the 'i' is already read)
// and streams the numeral. Bencode integer text is valid JSON number text
// once validated, so every accepted byte is written as soon as it is checked.
//
// Negative zero is rejected: a '0' directly after '-' fails with
// ErrLeadingZeroInteger, which also covers "-0" followed by more digits.
func (c *Converter) lexInteger() error {
	state := intStart
	for {
		b, err := c.in.readByte()
		if err != nil {
			return c.readError(ContextInteger, err)
		}

		switch state {
		case intStart:
			switch {
			case b == '-':
				state = intAfterSign
			case b == '0':
				state = intAfterZero
			case isDigit(b):
				state = intDigits
			default:
				return c.fail(ErrUnexpectedByte, ContextInteger, "expected sign or digit")
			}

		case intAfterSign:
			switch {
			case b == '0':
				return c.fail(ErrLeadingZeroInteger, ContextInteger, "zero after sign")
			case isDigit(b):
				state = intDigits
			default:
				return c.fail(ErrUnexpectedByte, ContextInteger, "expected digit after sign")
			}

		case intAfterZero:
			switch {
			case b == 'e':
				return nil
			case isDigit(b):
				return c.fail(ErrLeadingZeroInteger, ContextInteger, "")
			default:
				return c.fail(ErrUnexpectedByte, ContextInteger, "expected end of integer")
			}

		case intDigits:
			switch {
			case b == 'e':
				return nil
			case isDigit(b):
			default:
				return c.fail(ErrUnexpectedByte, ContextInteger, "expected digit or end of integer")
			}

		default:
			return c.fail(ErrUnexpectedByte, ContextInteger, "invalid integer state")
		}

		if err := c.emitByte(b); err != nil {
			return err
		}
	}
}
