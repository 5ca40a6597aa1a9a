package conv

const hexd = "0123456789ABCDEF"

// U8Hex writes n as "0xNN" (uppercase, zero-padded) into buf and returns
// the used slice. buf must hold 4 bytes.
func U8Hex(buf []byte, n uint8) []byte {
	if len(buf) < 4 {
		return buf[:0]
	}
	buf[0], buf[1] = '0', 'x'
	buf[2] = hexd[n>>4]
	buf[3] = hexd[n&0xF]
	return buf[:4]
}

// U32Hex writes 8-digit uppercase hex without 0x, zero-padded.
func U32Hex(buf []byte, n uint32) []byte {
	if len(buf) < 8 {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < 8; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}
